package cfg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	conf := Load()

	assert.Equal(t, "8000", conf.HTTPPort)
	assert.Equal(t, 1000, conf.MaxFiles)
	assert.Equal(t, int64(50*1024*1024), conf.MaxTotalSizeBytes)
	assert.Equal(t, 10, conf.MaxDirectoryDepth)
	assert.Equal(t, 60*time.Second, conf.CloneTimeout)
	assert.Equal(t, 10, conf.RateLimitRequests)
	assert.Equal(t, time.Minute, conf.RateLimitWindow)
	assert.Empty(t, conf.S3Bucket)
	assert.Empty(t, conf.KafkaBrokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9999")
	t.Setenv("GITTODOC_MAX_FILES", "25")
	t.Setenv("GITTODOC_MAX_TOTAL_SIZE_MB", "5")
	t.Setenv("CLONE_TIMEOUT", "90s")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("ALLOWED_HOSTS", "gittodoc.com")

	conf := Load()

	assert.Equal(t, "9999", conf.HTTPPort)
	assert.Equal(t, 25, conf.MaxFiles)
	assert.Equal(t, int64(5*1024*1024), conf.MaxTotalSizeBytes)
	assert.Equal(t, 90*time.Second, conf.CloneTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, conf.KafkaBrokers)
	assert.Equal(t, []string{"gittodoc.com"}, conf.AllowedHosts)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("GITTODOC_MAX_FILES", "lots")
	t.Setenv("CLONE_TIMEOUT", "soon")

	conf := Load()
	assert.Equal(t, 1000, conf.MaxFiles)
	assert.Equal(t, 60*time.Second, conf.CloneTimeout)
}
