package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/repository"
)

func TestExportServiceOrdersCSV(t *testing.T) {
	svc := NewExportService(zap.NewNop(), nil, nil)

	file, err := svc.OrdersCSV(repository.DemoOrders())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Contains(t, file.ContentType, "text/csv")

	body := string(file.Body)
	assert.Contains(t, body, "Order ID,Owner,File")
	assert.Contains(t, body, "ORD-2025-002")
	assert.Contains(t, body, "解析度不足 (72dpi); 出血區未設定")
}

func TestExportServiceReceipt(t *testing.T) {
	svc := NewExportService(zap.NewNop(), nil, nil)

	file, err := svc.Receipt(repository.DemoOrders()[0])
	require.NoError(t, err)
	assert.Equal(t, "ORD-2025-001.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF")))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a-b_c", sanitizeFilename("a/b c"))
}
