package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unset clears key for the duration of the test.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("S3_BUCKET", "studio-media")
	t.Setenv("DDB_TABLE", "studio")
	unset(t, "PRESIGN_TTL_SECONDS")
	unset(t, "MAX_UPLOAD_BYTES")
	unset(t, "BOOKING_STAFF_PARAM")
	unset(t, "LOG_FORMAT")

	e, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "studio-media", e.Bucket)
	assert.Equal(t, 5*time.Minute, e.PresignTTL())
	assert.Equal(t, int64(10<<20), e.MaxUploadBytes)
	assert.Equal(t, "staff", e.Booking.StaffParam)
	assert.Equal(t, "json", e.Log.Format)
}

func TestLoadRequiresBucketAndTable(t *testing.T) {
	unset(t, "S3_BUCKET")
	t.Setenv("DDB_TABLE", "studio")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadNested(t *testing.T) {
	t.Setenv("S3_BUCKET", "b")
	t.Setenv("DDB_TABLE", "t")
	t.Setenv("EMAILJS_SERVICE_ID", "svc")
	t.Setenv("EMAILJS_TEMPLATE_ID", "tpl")
	t.Setenv("EMAILJS_PUBLIC_KEY", "pub")
	t.Setenv("BOOKING_BASE_URL", "https://book.test/studio")
	t.Setenv("PRESIGN_TTL_SECONDS", "60")

	e, err := Load()
	require.NoError(t, err)
	assert.True(t, e.EmailJS.Enabled())
	assert.Equal(t, "https://book.test/studio", e.Booking.BaseURL)
	assert.Equal(t, time.Minute, e.PresignTTL())
}

func TestEmailJSEnabled(t *testing.T) {
	assert.False(t, EmailJS{ServiceID: "svc", TemplateID: "tpl"}.Enabled())
	assert.True(t, EmailJS{ServiceID: "svc", TemplateID: "tpl", PublicKey: "pub"}.Enabled())
}

func TestLoadLocal(t *testing.T) {
	unset(t, "S3_BUCKET")
	unset(t, "DDB_TABLE")
	unset(t, "DEV_BYPASS_AUTH")

	t.Setenv("BOOKING_BASE_URL", "https://book.test/studio?ref=site")
	t.Setenv("MEDIA_MAX_AGE", "30s")

	e, err := LoadLocal()
	require.NoError(t, err)
	assert.Equal(t, "local", e.Bucket)
	assert.True(t, e.DevBypassAuth)
	assert.Equal(t, "https://book.test/studio?ref=site", e.Booking.BaseURL, "values keep their = signs")
	assert.Equal(t, 30*time.Second, e.MediaMaxAge)

	t.Setenv("DEV_BYPASS_AUTH", "false")
	e, err = LoadLocal()
	require.NoError(t, err)
	assert.False(t, e.DevBypassAuth, "explicit setting wins")
}

func TestMustLoadPanics(t *testing.T) {
	unset(t, "S3_BUCKET")
	unset(t, "DDB_TABLE")
	assert.Panics(t, func() { MustLoad() })
}
