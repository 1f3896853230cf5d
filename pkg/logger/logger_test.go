package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndFormat(t *testing.T) {
	log := New("debug", "json", &bytes.Buffer{})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = New("nonsense", "text", &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf)

	LogError(log, "stock", "Adjust", "rebuild partition", map[string]string{"fy": "2024-25"}, errors.New("boom"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "boom", record["msg"])
	assert.Equal(t, "stock", record["module"])
	assert.Equal(t, "Adjust", record["funcName"])
	assert.Equal(t, "rebuild partition", record["context"])
	assert.Equal(t, "error", record["level"])
	assert.NotNil(t, record["data"])
}
