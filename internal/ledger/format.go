package ledger

import "google.golang.org/api/sheets/v4"

// Grid indexes are zero-based and end-exclusive; the row arguments here are
// the one-based worksheet rows used everywhere else in this package.
const (
	colName  = 1  // B
	colPhone = 2  // C
	colDate  = 12 // M
	colEnd   = 13 // exclusive, after M
)

var headerFormat = &sheets.CellFormat{
	BackgroundColor:     &sheets.Color{Red: 0.97, Green: 0.97, Blue: 0.97},
	HorizontalAlignment: "CENTER",
	VerticalAlignment:   "MIDDLE",
	WrapStrategy:        "WRAP",
	TextFormat:          &sheets.TextFormat{Bold: true, FontSize: 13},
}

var nameFormat = &sheets.CellFormat{
	HorizontalAlignment: "CENTER",
	VerticalAlignment:   "MIDDLE",
	WrapStrategy:        "WRAP",
	TextFormat:          &sheets.TextFormat{Bold: true, FontSize: 17},
}

var phoneFormat = &sheets.CellFormat{
	HorizontalAlignment: "CENTER",
	VerticalAlignment:   "MIDDLE",
	TextFormat:          &sheets.TextFormat{Bold: true, FontSize: 15},
}

var dataFormat = &sheets.CellFormat{
	HorizontalAlignment: "CENTER",
	VerticalAlignment:   "MIDDLE",
	WrapStrategy:        "WRAP",
}

var thickBorder = &sheets.Border{Style: "SOLID_THICK"}
var thinBorder = &sheets.Border{Style: "SOLID"}

// blockFormatRequests builds the batch that shapes a freshly written worker
// block: merged name and phone cells, header and data styling, an outer
// thick border with thin inner lines, and a short gap row above the block.
func blockFormatRequests(sheetID, headerRow, dataStart, dataEnd int64) []*sheets.Request {
	blockRange := &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    headerRow - 1,
		EndRowIndex:      dataEnd,
		StartColumnIndex: colName,
		EndColumnIndex:   colEnd,
	}

	return []*sheets.Request{
		{
			MergeCells: &sheets.MergeCellsRequest{
				MergeType: "MERGE_ALL",
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    dataStart - 1,
					EndRowIndex:      dataEnd,
					StartColumnIndex: colName,
					EndColumnIndex:   colName + 1,
				},
			},
		},
		{
			MergeCells: &sheets.MergeCellsRequest{
				MergeType: "MERGE_ALL",
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    dataStart - 1,
					EndRowIndex:      dataEnd,
					StartColumnIndex: colPhone,
					EndColumnIndex:   colPhone + 1,
				},
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    headerRow - 1,
					EndRowIndex:      headerRow,
					StartColumnIndex: colName,
					EndColumnIndex:   colEnd,
				},
				Cell:   &sheets.CellData{UserEnteredFormat: headerFormat},
				Fields: "userEnteredFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    dataStart - 1,
					EndRowIndex:      dataEnd,
					StartColumnIndex: colName + 2,
					EndColumnIndex:   colEnd,
				},
				Cell:   &sheets.CellData{UserEnteredFormat: dataFormat},
				Fields: "userEnteredFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    dataStart - 1,
					EndRowIndex:      dataEnd,
					StartColumnIndex: colName,
					EndColumnIndex:   colName + 1,
				},
				Cell:   &sheets.CellData{UserEnteredFormat: nameFormat},
				Fields: "userEnteredFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    dataStart - 1,
					EndRowIndex:      dataEnd,
					StartColumnIndex: colPhone,
					EndColumnIndex:   colPhone + 1,
				},
				Cell:   &sheets.CellData{UserEnteredFormat: phoneFormat},
				Fields: "userEnteredFormat",
			},
		},
		{
			UpdateBorders: &sheets.UpdateBordersRequest{
				Range:           blockRange,
				Top:             thickBorder,
				Bottom:          thickBorder,
				Left:            thickBorder,
				Right:           thickBorder,
				InnerHorizontal: thinBorder,
				InnerVertical:   thinBorder,
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: headerRow - 2,
					EndIndex:   headerRow - 1,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 30},
				Fields:     "pixelSize",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: colName,
					EndIndex:   colName + 1,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 300},
				Fields:     "pixelSize",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: colPhone,
					EndIndex:   colPhone + 1,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 180},
				Fields:     "pixelSize",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: colPhone + 1,
					EndIndex:   colDate,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 200},
				Fields:     "pixelSize",
			},
		},
		{
			UpdateDimensionProperties: &sheets.UpdateDimensionPropertiesRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: colDate,
					EndIndex:   colEnd,
				},
				Properties: &sheets.DimensionProperties{PixelSize: 70},
				Fields:     "pixelSize",
			},
		},
	}
}
