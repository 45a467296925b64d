package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"food-delivery-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), time.Hour)
	courierID := uint(7)
	in := models.Principal{UserID: 3, Email: "kai@example.com", Role: models.RoleCourier, CourierID: &courierID}

	token, err := ti.Generate(in)
	require.NoError(t, err)

	got, err := ti.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, in.UserID, got.UserID)
	assert.Equal(t, in.Role, got.Role)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, courierID, *got.CourierID)
}

func TestTokenRejected(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), time.Hour)
	token, err := ti.Generate(models.Principal{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	other := NewTokenIssuer([]byte("other-secret"), time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	expired := NewTokenIssuer([]byte("test-secret"), time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(token)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = ti.Parse("not-a-token")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthAndRoleRequired(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"), time.Hour)
	r := gin.New()
	r.GET("/admin", AuthRequired(ti), RoleRequired(models.RoleAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": MustPrincipal(c).UserID})
	})

	adminToken, err := ti.Generate(models.Principal{UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	customerToken, err := ti.Generate(models.Principal{UserID: 2, Role: models.RoleCustomer})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + customerToken, want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + adminToken, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
