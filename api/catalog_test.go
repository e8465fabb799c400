package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"studyportal/config"
	"studyportal/storage"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogHandler(t *testing.T) (*CatalogHandler, string) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	return NewCatalogHandler(store), dir
}

// multiFileBody 构造多文件 multipart 请求体
func multiFileBody(t *testing.T, fileNames []string) (*bytes.Buffer, string) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for _, name := range fileNames {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestCatalogHandler_UploadFiles(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 两个文件依次写入元数据
	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `uploaded_files`").
			WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
		mock.ExpectCommit()
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h, dir := newTestCatalogHandler(t)
	router.POST("/files/:category", withUser(2, "admin101@gmail.com"), h.UploadFiles)

	buf, contentType := multiFileBody(t, []string{"algebra.pdf", "calculus.pdf"})
	req := httptest.NewRequest("POST", "/files/college", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["uploaded"])
	assert.Equal(t, float64(2), data["total"])

	// 对象全部落在对应板块目录下
	matches, err := filepath.Glob(filepath.Join(dir, "college", "*.pdf"))
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_UploadFiles_InvalidCategory(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	h, _ := newTestCatalogHandler(t)
	router.POST("/files/:category", withUser(2, "admin101@gmail.com"), h.UploadFiles)

	buf, contentType := multiFileBody(t, []string{"a.pdf"})
	req := httptest.NewRequest("POST", "/files/class-13", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestCatalogHandler_UploadFiles_MetadataFailCleansObject(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 元数据写入失败，已写入的对象必须被回收
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `uploaded_files`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	router := gin.New()
	h, dir := newTestCatalogHandler(t)
	router.POST("/files/:category", withUser(2, "admin101@gmail.com"), h.UploadFiles)

	buf, contentType := multiFileBody(t, []string{"physics.pdf"})
	req := httptest.NewRequest("POST", "/files/class-11-12", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 500, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["uploaded"])
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, "physics.pdf", data["failed"])

	// 不留孤儿对象
	matches, err := filepath.Glob(filepath.Join(dir, "class-11-12", "*"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_UploadFiles_PartialBatch(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 三个文件：第一个成功，第二个元数据写入失败，第三个不再处理
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `uploaded_files`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `uploaded_files`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	router := gin.New()
	h, _ := newTestCatalogHandler(t)
	router.POST("/files/:category", withUser(2, "admin101@gmail.com"), h.UploadFiles)

	buf, contentType := multiFileBody(t, []string{"one.pdf", "two.pdf", "three.pdf"})
	req := httptest.NewRequest("POST", "/files/jee-gate-pyq", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 500, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["uploaded"])
	assert.Equal(t, float64(3), data["total"])
	assert.Equal(t, "two.pdf", data["failed"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_ListFiles(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	now := time.Now()
	mock.ExpectQuery("SELECT .* FROM `uploaded_files`").
		WithArgs("college").
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_name", "file_path", "file_size", "file_type", "category", "created_at"}).
			AddRow(2, "new.pdf", "college/bbb.pdf", 200, "application/pdf", "college", now).
			AddRow(1, "old.pdf", "college/aaa.pdf", 100, "application/pdf", "college", now.Add(-time.Hour)))

	router := gin.New()
	h, _ := newTestCatalogHandler(t)
	router.GET("/files/:category", withUser(1, "student@x.com"), h.ListFiles)

	req := httptest.NewRequest("GET", "/files/college", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	list := resp["data"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "new.pdf", list[0].(map[string]interface{})["file_name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogHandler_ListFiles_InvalidCategory(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	h, _ := newTestCatalogHandler(t)
	router.GET("/files/:category", withUser(1, "student@x.com"), h.ListFiles)

	req := httptest.NewRequest("GET", "/files/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestCatalogHandler_DownloadFile(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	h, dir := newTestCatalogHandler(t)

	// 预置对象内容
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), "college/abc.pdf", bytes.NewReader([]byte("pdf-bytes"))))

	mock.ExpectQuery("SELECT .* FROM `uploaded_files`").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_name", "file_path", "file_size", "file_type", "category"}).
			AddRow(1, "algebra.pdf", "college/abc.pdf", 9, "application/pdf", "college"))

	router.GET("/files/:category/download/:id", withUser(1, "student@x.com"), h.DownloadFile)

	req := httptest.NewRequest("GET", "/files/college/download/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "pdf-bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "algebra.pdf")
	require.NoError(t, mock.ExpectationsWereMet())
}
