package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"cartellino/internal/domain"
	"cartellino/internal/handler"
	"cartellino/internal/service"
	"cartellino/mocks"
)

func postToken(h *handler.AuthHandler, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	h.Token(c)
	return w
}

func TestAuthHandler_Token_Success(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)
	h := handler.NewAuthHandler(mockAuth)

	token := &service.AccessToken{AccessToken: "signed", ExpiresAt: time.Now().Add(time.Hour)}
	mockAuth.On("IssueToken", mock.Anything, "payroll-sync", "s3cret").Return(token, nil)

	body, _ := json.Marshal(map[string]string{"client_id": "payroll-sync", "client_secret": "s3cret"})
	w := postToken(h, body)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "signed", resp.Data.(map[string]interface{})["access_token"])
	mockAuth.AssertExpectations(t)
}

func TestAuthHandler_Token_InvalidCredentials(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)
	h := handler.NewAuthHandler(mockAuth)

	mockAuth.On("IssueToken", mock.Anything, "payroll-sync", "wrong").Return(nil, domain.ErrInvalidCredentials)

	body, _ := json.Marshal(map[string]string{"client_id": "payroll-sync", "client_secret": "wrong"})
	w := postToken(h, body)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, w).Error.Code)
}

func TestAuthHandler_Token_ValidationError(t *testing.T) {
	mockAuth := new(mocks.MockAuthService)
	h := handler.NewAuthHandler(mockAuth)

	body, _ := json.Marshal(map[string]string{"client_id": "payroll-sync"})
	w := postToken(h, body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w).Error.Code)
	mockAuth.AssertNotCalled(t, "IssueToken", mock.Anything, mock.Anything, mock.Anything)
}
