package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/parkpro/internal/parking/domain"
)

const timeLayout = "02 Jan 2006 15:04"

type ReceiptData struct {
	Number        string
	CarNumber     string
	EntryTime     time.Time
	ExitTime      time.Time
	DurationLabel string
	Total         string
	Summary       string
	Location      *time.Location
}

// ReceiptDataFrom renders times in loc.
func ReceiptDataFrom(receipt domain.Receipt, loc *time.Location) ReceiptData {
	return ReceiptData{
		Number:        receipt.Number,
		CarNumber:     receipt.CarNumber,
		EntryTime:     receipt.EntryTime,
		ExitTime:      receipt.ExitTime,
		DurationLabel: receipt.DurationLabel,
		Total:         "Rs " + receipt.Charges.StringFixed(2),
		Summary:       receipt.Summary,
		Location:      loc,
	}
}

// FileName returns the download name for a receipt, e.g.
// "parking-receipt-xyz-123-01hq....pdf".
func FileName(data ReceiptData) string {
	return slug.Make("parking receipt "+data.CarNumber+" "+data.Number) + ".pdf"
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := receipt.Location
	if loc == nil {
		loc = time.UTC
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Parking Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Center,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Receipt number: "+receipt.Number, props.Text{
			Size:  9,
			Align: align.Center,
		}),
	)
	m.AddRow(6, line.NewCol(12))

	rows := [][2]string{
		{"Car number", receipt.CarNumber},
		{"Entry time", receipt.EntryTime.In(loc).Format(timeLayout)},
		{"Exit time", receipt.ExitTime.In(loc).Format(timeLayout)},
		{"Duration", receipt.DurationLabel},
	}
	for _, row := range rows {
		m.AddRow(9,
			text.NewCol(6, row[0], props.Text{Size: 10}),
			text.NewCol(6, row[1], props.Text{Size: 10, Align: align.Right}),
		)
	}

	m.AddRow(6, line.NewCol(12))
	m.AddRow(12,
		text.NewCol(6, "Total", props.Text{Size: 14, Style: fontstyle.Bold}),
		text.NewCol(6, receipt.Total, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
	)

	if receipt.Summary != "" {
		m.AddRow(16,
			col.New(12).Add(
				text.New(receipt.Summary, props.Text{Size: 10, Style: fontstyle.Italic, Align: align.Center, Top: 4}),
			),
		)
	}
	m.AddRow(10,
		text.NewCol(12, fmt.Sprintf("Thank you for parking with us! Issued %s", receipt.ExitTime.In(loc).Format(timeLayout)), props.Text{
			Size:  8,
			Align: align.Center,
			Top:   4,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
