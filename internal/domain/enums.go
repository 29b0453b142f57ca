package domain

// FileType represents the allowed upload file types.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeJPG  FileType = "jpg"
	FileTypePNG  FileType = "png"
	FileTypeJSON FileType = "json"
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"json": FileTypeJSON,
	"csv":  FileTypeCSV,
	"xlsx": FileTypeXLSX,
}

// ImageContentTypes maps image FileTypes to their MIME content type.
var ImageContentTypes = map[FileType]string{
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// ReportSource records where the periods of a report came from.
type ReportSource string

const (
	ReportSourcePDF     ReportSource = "pdf"
	ReportSourceImages  ReportSource = "images"
	ReportSourceGrid    ReportSource = "grid"
	ReportSourcePeriods ReportSource = "periods"
)

// RecordKind is the classification of a record's company name.
type RecordKind int

const (
	KindUnclassified RecordKind = iota
	KindVacation
	KindContract
)

func (k RecordKind) String() string {
	switch k {
	case KindVacation:
		return "vacation"
	case KindContract:
		return "contract"
	default:
		return "unclassified"
	}
}
