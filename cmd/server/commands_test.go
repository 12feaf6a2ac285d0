package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"civicadmin/config"
	"civicadmin/internal/aggregate"
	"civicadmin/internal/auth"
	"civicadmin/internal/domain"
	"civicadmin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderReports(t *testing.T) {
	rows := []models.ReportWithVotes{
		{
			Report:       models.Report{ID: "7f0c1b2a-aaaa-bbbb-cccc-000000000001", Title: "Broken streetlight", Category: domain.CategoryStreetlight, Status: domain.StatusInProgress, CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
			Upvotes:      4,
			Downvotes:    1,
			ReporterName: "Anonymous",
		},
	}
	out := renderReports(rows)
	for _, want := range []string{"7f0c1b2a", "Broken streetlight", "In Progress", "Anonymous", "2024-05-02"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "aaaa-bbbb")
}

func TestRenderCounts(t *testing.T) {
	got := renderCounts(aggregate.Counts{Total: 3, Reported: 1, InProgress: 1, Resolved: 1})
	assert.Equal(t, "total 3 · reported 1 · in progress 1 · resolved 1", got)
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JWT_SECRET", "dev-secret")
	t.Setenv("JWT_ISSUER", "")

	cmd := tokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"admin-7", "--email", "ops@city.gov", "--ttl", "5m"})
	require.NoError(t, cmd.Execute())

	claims, err := auth.ParseAccessToken(&config.JWTConfig{AccessSecret: "dev-secret"}, strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "admin-7", claims.UserID())
	assert.Equal(t, "ops@city.gov", claims.Email)
	assert.True(t, claims.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenCmd_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cmd := tokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"admin-7"})
	assert.Error(t, cmd.Execute())
}

func TestTokenCmd_ReadsDotEnv(t *testing.T) {
	for _, k := range []string{"CONFIG_FILE", "JWT_SECRET", "JWT_ISSUER"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-dotenv\n"), 0o600))
	t.Chdir(dir)

	cmd := tokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"admin-7"})
	require.NoError(t, cmd.Execute())

	_, err := auth.ParseAccessToken(&config.JWTConfig{AccessSecret: "from-dotenv"}, strings.TrimSpace(out.String()))
	assert.NoError(t, err)
}
