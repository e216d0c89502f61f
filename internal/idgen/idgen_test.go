package idgen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NanayasWorkshop/MakerManager/internal/idgen"
)

func TestFormats(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "Material", got: idgen.MaterialID("m", "raw", 1), want: "M-RAW-00001"},
		{name: "MaterialLongSequence", got: idgen.MaterialID("WD", "PLY", 123456), want: "WD-PLY-123456"},
		{name: "Machine", got: idgen.MachineID("lsr", 3), want: "MC-LSR-00003"},
		{name: "Job", got: idgen.JobID("proj", 1, 2026), want: "J-PROJ-000126"},
		{name: "JobPrefix", got: idgen.JobPrefix("Proj", 2026), want: "J-PROJ/26"},
		{name: "Personal", got: idgen.PersonalJobID("alice"), want: "PER-alice"},
		{name: "CodeStripsSeparators", got: idgen.Code(" 3d-print "), want: "3DPRINT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
