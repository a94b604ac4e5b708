package providers

import (
	"github.com/smallbiznis/parkpro/internal/providers/pdf"
	"github.com/smallbiznis/parkpro/internal/providers/receipttext"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
	receipttext.Module,
)
