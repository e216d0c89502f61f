package scan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NanayasWorkshop/MakerManager/internal/scan"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want scan.Type
	}{
		{"J-00042", scan.TypeJob},
		{"job-17", scan.TypeJob},
		{"J-PROJ-00010001", scan.TypeJob},
		{"PER-alice", scan.TypeJob},
		{"M-RAW-00001", scan.TypeMaterial},
		{"  mat-5 ", scan.TypeMaterial},
		{"MC-7", scan.TypeMachine},
		{"mc-lsr-00003", scan.TypeMachine},
		{"MACH-12", scan.TypeMachine},
		{"XYZ123", scan.TypeUnknown},
		{"M-", scan.TypeUnknown},
		{"MC", scan.TypeUnknown},
		{"", scan.TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, scan.Classify(tt.code))
		})
	}
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"BareID", "M-RAW-00001", "M-RAW-00001"},
		{"URLWithTrailingPath", "https://workshop.example.com/jobs/J-00042/detail", "J-00042"},
		{"URLEndingInID", "https://workshop.example.com/material/M-12345", "M-12345"},
		{"ScanPayload", "https://workshop.example.com/scan/MC-LSR-00003", "MC-LSR-00003"},
		{"ScanPayloadUnknownPrefix", "https://workshop.example.com/scan/RAW-FIL-00002?src=label", "RAW-FIL-00002"},
		{"QueryParameter", "https://workshop.example.com/lookup?id=MACH-9&x=1", "MACH-9"},
		{"ScanPathWithQueryID", "https://workshop.example.com/scan/lookup?code=J-00042", "J-00042"},
		{"ScanPathWithNestedID", "https://workshop.example.com/scan/index.html/J-00042", "J-00042"},
		{"Serial", " SN-4471-AB ", "SN-4471-AB"},
		{"EAN", "4006381333931", "4006381333931"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scan.ExtractID(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "M-RAW-00001", scan.Normalize("  m-raw-00001\n"))
}
