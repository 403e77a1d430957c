package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lelcaren/mwangaza-rentals/internal/auth"
	"github.com/Lelcaren/mwangaza-rentals/internal/config"
	"github.com/Lelcaren/mwangaza-rentals/internal/database/dbtest"
	"github.com/Lelcaren/mwangaza-rentals/internal/logger"
	"github.com/Lelcaren/mwangaza-rentals/internal/messaging"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &app{
		cfg: &config.Config{
			Server:  config.ServerConfig{Port: "8080", Env: "test"},
			CORS:    config.CORSConfig{Origins: []string{"http://localhost:5173"}},
			Billing: config.BillingConfig{VATRate: 0.16, WHTRate: 0.10, DueDay: 5},
			Locale:  config.LocaleConfig{Language: "en", Region: "en-KE"},
		},
		log: logger.Nop(),
		db:  dbtest.New(t),
	}
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "seed", "mark-overdue", "token"}, names)
}

func TestSettingsFromConfig(t *testing.T) {
	a := testApp(t)
	a.cfg.Billing.VATBase = []models.Component{models.ComponentRent}

	s := a.settings()

	assert.Equal(t, 0.16, s.VATRate)
	assert.Equal(t, 5, s.DueDay)
	assert.Equal(t, []models.Component{models.ComponentRent}, s.VATBase)
}

func TestSender(t *testing.T) {
	a := testApp(t)
	assert.IsType(t, &messaging.LogSender{}, a.sender())

	a.cfg.Messaging.WebhookURL = "http://gateway.local/send"
	assert.IsType(t, &messaging.WebhookSender{}, a.sender())
}

func TestSeed(t *testing.T) {
	a := testApp(t)
	svc := a.services()
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, seed(ctx, svc, "2024-07", &out))
	assert.Contains(t, out.String(), "Seeded 6 properties, 6 tenants and 4 bills for 2024-07")

	bills, err := svc.billing.List(ctx, services.BillFilter{Period: "2024-07"})
	require.NoError(t, err)
	require.Len(t, bills, 4)
	for _, b := range bills {
		require.NotNil(t, b.Property)
		if b.Property.Type == models.PropertyCommercial {
			assert.NotNil(t, b.VAT, b.Property.Name)
		} else {
			assert.Nil(t, b.VAT, b.Property.Name)
		}
	}

	err = seed(ctx, svc, "2024-07", &out)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already holds 6 properties")
}

func TestRouter_AnonymousWithoutSecret(t *testing.T) {
	a := testApp(t)
	router := a.router(a.services())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/properties", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// tokenEnv points config.Load at sqlite so no database credentials are needed.
func tokenEnv(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("AUTH_JWT_SECRET", "cli-secret")
}

func TestTokenCmd(t *testing.T) {
	tokenEnv(t)
	t.Setenv("ENV", "development")

	cmd := TokenCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user", "user-42", "--role", "tenant", "--name", "Mary Atieno"})
	require.NoError(t, cmd.Execute())

	user, err := auth.NewVerifier("cli-secret").Verify(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "user-42", user.ID)
	assert.Equal(t, models.RoleTenant, user.Role)
	assert.Equal(t, "Mary Atieno", user.FullName)
}

func TestTokenCmd_Rejections(t *testing.T) {
	tokenEnv(t)
	t.Setenv("ENV", "development")

	cmd := TokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--role", "landlord"})
	assert.ErrorContains(t, cmd.Execute(), "unknown role")

	t.Setenv("ENV", "production")
	cmd = TokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	assert.ErrorContains(t, cmd.Execute(), "production")
}

func TestMarkOverdueCmd_BadDate(t *testing.T) {
	cmd := MarkOverdueCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--as-of", "20/07/2024"})

	assert.ErrorContains(t, cmd.Execute(), "invalid --as-of")
}
