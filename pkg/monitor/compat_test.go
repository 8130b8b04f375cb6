package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRuntimeCompatibility(t *testing.T) {
	tests := []struct {
		version      string
		wantLevel    string
		wantWarnings int
		wantInfos    int
	}{
		{version: "v18.12.0", wantLevel: CompatFull, wantInfos: 1},
		{version: "14.0.0", wantLevel: CompatFull, wantInfos: 1},
		{version: "13.7.1", wantLevel: CompatBaseline, wantInfos: 1},
		{version: "12.0.0", wantLevel: CompatBaseline, wantInfos: 1},
		{version: "v11.15.0", wantLevel: CompatUnsupported, wantWarnings: 1},
		{version: "not-a-version", wantLevel: CompatUnknown, wantWarnings: 1},
	}

	for _, test := range tests {
		t.Run(test.version, func(t *testing.T) {
			m := newTestMonitor(t, &fakeSource{}, WithVersionSource(fakeVersion{version: test.version}))

			var warnings, infos int
			m.Subscribe(EventWarning, func(Event) { warnings++ })
			m.Subscribe(EventInfo, func(Event) { infos++ })

			c := m.CheckRuntimeCompatibility()

			assert.Equal(t, test.wantLevel, c.Level)
			assert.Equal(t, test.version, c.Version)
			assert.NotEmpty(t, c.Message)
			assert.Equal(t, test.wantWarnings, warnings)
			assert.Equal(t, test.wantInfos, infos)
		})
	}
}

func TestMajorVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{input: "v16.3.0", want: 16},
		{input: "16.3.0", want: 16},
		{input: " 20.1 ", want: 20},
		{input: "7", want: 7},
		{input: "", wantErr: true},
		{input: "vx.y.z", wantErr: true},
	}

	for _, test := range tests {
		major, err := majorVersion(test.input)
		if test.wantErr {
			assert.Error(t, err, test.input)
			continue
		}
		assert.NoError(t, err, test.input)
		assert.Equal(t, test.want, major, test.input)
	}
}
