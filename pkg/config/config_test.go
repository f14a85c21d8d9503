package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsApplied(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 2*time.Second, cfg.Analysis.Latency)
	assert.Equal(t, 10, cfg.Proofing.ScoreIncrement)
	assert.Equal(t, 85, cfg.Proofing.DefaultZoom)
	assert.Equal(t, "teacher@demo.edu", cfg.Proofing.ReviewerEmail)
	assert.Equal(t, "gemini-2.5-flash", cfg.Chat.Model)
	assert.Empty(t, cfg.Chat.APIKey)
	assert.Equal(t, int64(50*1024*1024), cfg.Uploads.MaxFileSizeBytes)
}

func TestOverridesAndParsing(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PROOFING_SCORE_INCREMENT", 5)
	v.Set("ANALYSIS_LATENCY", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := fromViper(v)

	assert.Equal(t, 5, cfg.Proofing.ScoreIncrement)
	assert.Equal(t, 2*time.Second, cfg.Analysis.Latency)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}
