package severity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev      Severity
		expected string
		queue    string
	}{
		{Idle, "idle", ""},
		{Info, "info", "messages"},
		{Warning, "warning", "warnings"},
		{Error, "error", "errors"},
		{Severity(42), "unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.sev.String())
			assert.Equal(t, tt.queue, tt.sev.QueueKey())
		})
	}
}

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, Idle, Info)
	assert.Less(t, Info, Warning)
	assert.Less(t, Warning, Error)
	assert.Equal(t, []Severity{Error, Warning, Info}, Levels)
}

func TestDefaultTable_Classify(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		typeName string
		want     Severity
	}{
		{"message", Info},
		{"warn", Warning},
		{"error", Error},
		{"statusmessage", Info},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, err := table.Classify(tt.typeName)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_Unknown(t *testing.T) {
	_, err := DefaultTable().Classify("toast")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnclassified)
	assert.Contains(t, err.Error(), `"toast"`)
}

func TestNewTable(t *testing.T) {
	table, err := NewTable(map[string]Severity{"notice": Info, "warn": Error})
	require.NoError(t, err)

	sev, err := table.Classify("notice")
	require.NoError(t, err)
	assert.Equal(t, Info, sev)

	sev, err = table.Classify("warn")
	require.NoError(t, err)
	assert.Equal(t, Error, sev, "extra entries override built-ins")

	assert.Equal(t, []string{"error", "message", "notice", "statusmessage", "warn"}, table.Names())
}

func TestNewTable_Invalid(t *testing.T) {
	_, err := NewTable(map[string]Severity{"quiet": Idle})
	assert.ErrorIs(t, err, ErrInvalidSeverity)

	_, err = NewTable(map[string]Severity{"  ": Info})
	assert.ErrorIs(t, err, ErrEmptyTypeName)
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input   string
		want    Severity
		wantErr bool
	}{
		{"info", Info, false},
		{"Warning", Warning, false},
		{"warn", Warning, false},
		{" error ", Error, false},
		{"idle", Idle, true},
		{"", Idle, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSeverity(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSeverity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitEvents(t *testing.T) {
	assert.Equal(t, []string{"message", "warn", "error"}, SplitEvents(" message, warn ,error,"))
	assert.Nil(t, SplitEvents(""))
	assert.Nil(t, SplitEvents(" , "))
}
