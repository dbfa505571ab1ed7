package util

import (
	"net/http/httptest"
	"testing"
	"time"

	"eyecare_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestJWT_RoundTrip(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 42}, Email: "ana@example.com", Role: model.Member}

	token, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, model.Member, claims.Role)
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestJWT_Rejects(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}}

	expired, err := GenerateJWT(user, testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, testSecret)
	assert.Error(t, err)

	valid, err := GenerateJWT(user, testSecret, time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(valid, "another-secret-another-secret-xx")
	assert.Error(t, err)
}

func TestGetUserFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetUserFromContext(c))

	c.Set("user", "not claims")
	assert.Nil(t, GetUserFromContext(c))

	c.Set("user", &Claims{UserID: 7})
	require.NotNil(t, GetUserFromContext(c))
	assert.Equal(t, uint(7), GetUserFromContext(c).UserID)
}

func TestParseIDAndPaging(t *testing.T) {
	id, err := ParseID("15")
	require.NoError(t, err)
	assert.Equal(t, uint(15), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := ParseID(bad)
		assert.ErrorIs(t, err, ErrInvalidID, bad)
	}

	page, limit := Paging("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultPageSize, limit)

	page, limit = Paging("3", "1000")
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, limit)
}
