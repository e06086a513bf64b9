package handlers_test

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/politologod/vibes-marketplace/internal/api/handlers"
	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/models"
	"github.com/politologod/vibes-marketplace/internal/utils"
)

type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) UploadProductImage(ctx context.Context, productID, filename, contentType string, body io.Reader) (string, error) {
	args := m.Called(ctx, productID, filename, contentType, body)
	return args.String(0), args.Error(1)
}

func (m *MockS3Storage) Download(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockS3Storage) Overwrite(ctx context.Context, key, contentType string, data []byte) error {
	args := m.Called(ctx, key, contentType, data)
	return args.Error(0)
}

func (m *MockS3Storage) ObjectURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func uploadTestConfig() *config.Config {
	return &config.Config{ImageMaxSizeMB: 5}
}

// imageForm builds a multipart body with one file in the given field,
// declaring the given content type.
func imageForm(t *testing.T, field, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write(payload)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func TestRestUploadHandler_RequiresIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestUploadHandler(uploadTestConfig(), new(MockProductService), new(MockS3Storage), nil)

	r := gin.New()
	r.POST("/api/products/:id/images", handler.UploadImages)

	body, contentType := imageForm(t, "images", "foto.jpg", "image/jpeg", []byte("fake"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/products/"+utils.NewSixID().String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRestUploadHandler_ForbiddenForNonOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockProducts := new(MockProductService)
	mockStorage := new(MockS3Storage)
	handler := handlers.NewRestUploadHandler(uploadTestConfig(), mockProducts, mockStorage, nil)

	ownerID := utils.NewSixID()
	intruderID := utils.NewSixID()
	productID := utils.NewSixID()
	mockProducts.On("FindProductByID", mock.Anything, productID).
		Return(&models.Product{ID: productID, VendedorID: ownerID}, nil)

	r := gin.New()
	r.POST("/api/products/:id/images", asUser(intruderID), handler.UploadImages)

	body, contentType := imageForm(t, "images", "foto.jpg", "image/jpeg", []byte("fake"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/products/"+productID.String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockStorage.AssertNotCalled(t, "UploadProductImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRestUploadHandler_RejectsNonImage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockProducts := new(MockProductService)
	handler := handlers.NewRestUploadHandler(uploadTestConfig(), mockProducts, new(MockS3Storage), nil)

	ownerID := utils.NewSixID()
	productID := utils.NewSixID()
	mockProducts.On("FindProductByID", mock.Anything, productID).
		Return(&models.Product{ID: productID, VendedorID: ownerID}, nil)

	r := gin.New()
	r.POST("/api/products/:id/images", asUser(ownerID), handler.UploadImages)

	body, contentType := imageForm(t, "images", "script.sh", "application/x-sh", []byte("#!/bin/sh"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/products/"+productID.String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Solo se permiten archivos de imagen")
}

func TestRestUploadHandler_NoFiles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockProducts := new(MockProductService)
	handler := handlers.NewRestUploadHandler(uploadTestConfig(), mockProducts, new(MockS3Storage), nil)

	ownerID := utils.NewSixID()
	productID := utils.NewSixID()
	mockProducts.On("FindProductByID", mock.Anything, productID).
		Return(&models.Product{ID: productID, VendedorID: ownerID}, nil)

	r := gin.New()
	r.POST("/api/products/:id/images", asUser(ownerID), handler.UploadImages)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	assert.NoError(t, writer.WriteField("otro", "campo"))
	assert.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/products/"+productID.String()+"/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No se proporcionó ninguna imagen")
}

func TestRestUploadHandler_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockProducts := new(MockProductService)
	mockStorage := new(MockS3Storage)
	handler := handlers.NewRestUploadHandler(uploadTestConfig(), mockProducts, mockStorage, nil)

	ownerID := utils.NewSixID()
	productID := utils.NewSixID()
	key := "products/" + productID.String() + "/uuid_foto.jpg"
	objectURL := "https://bucket.s3.us-east-1.amazonaws.com/" + key

	mockProducts.On("FindProductByID", mock.Anything, productID).
		Return(&models.Product{ID: productID, VendedorID: ownerID}, nil)
	mockStorage.On("UploadProductImage", mock.Anything, productID.String(), "foto.jpg", "image/jpeg", mock.Anything).
		Return(key, nil)
	mockStorage.On("ObjectURL", key).Return(objectURL)
	mockProducts.On("AddImagesToProduct", mock.Anything, productID, []string{objectURL}).
		Return(&models.Product{ID: productID, VendedorID: ownerID, Imagenes: []string{objectURL}}, nil)

	r := gin.New()
	r.POST("/api/products/:id/images", asUser(ownerID), handler.UploadImages)

	body, contentType := imageForm(t, "image", "foto.jpg", "image/jpeg", []byte("jpegdata"))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/products/"+productID.String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), objectURL)
	mockProducts.AssertExpectations(t)
	mockStorage.AssertExpectations(t)
}
