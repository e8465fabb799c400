package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"os"
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

func newTestNotesHandler(t *testing.T) (*NotesHandler, string) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	return NewNotesHandler(store), dir
}

// multipartBody 构造带附件的 multipart 请求体
func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, content []byte) (*bytes.Buffer, string) {
	buf := new(bytes.Buffer)
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := w.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func TestNotesHandler_CreateTextNote(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `notes`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.POST("/notes", withUser(1, "student@x.com"), h.CreateTextNote)

	body := `{"title":"高数复习","content":"第三章"}`
	req := httptest.NewRequest("POST", "/notes", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "text", data["kind"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesHandler_CreateTextNote_Invalid(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.POST("/notes", withUser(1, "student@x.com"), h.CreateTextNote)

	for _, body := range []string{
		`{"title":"","content":"x"}`,
		`{"title":"x","content":""}`,
		`{"title":"   ","content":"x"}`,
	} {
		req := httptest.NewRequest("POST", "/notes", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, "body: %s", body)
	}
}

func TestNotesHandler_CreateFileNote(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `notes`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	router := gin.New()
	h, dir := newTestNotesHandler(t)
	router.POST("/notes/file", withUser(1, "student@x.com"), h.CreateFileNote)

	content := make([]byte, 2048)
	buf, contentType := multipartBody(t, map[string]string{"kind": "photo"}, "file", "exam.png", content)
	req := httptest.NewRequest("POST", "/notes/file", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "photo", data["kind"])
	assert.Equal(t, "exam.png", data["file_name"])
	// 内容摘要包含原始文件名和大小
	assert.Equal(t, "File: exam.png (2.00 KB)", data["content"])

	// 附件已写入对象存储
	matches, err := filepath.Glob(filepath.Join(dir, "user-1", "*.png"))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	saved, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Equal(t, content, saved)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesHandler_CreateFileNote_InvalidKind(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.POST("/notes/file", withUser(1, "student@x.com"), h.CreateFileNote)

	// text 不是附件类型，随意字符串也不是
	for _, kind := range []string{"text", "audio", ""} {
		buf, contentType := multipartBody(t, map[string]string{"kind": kind}, "file", "a.bin", []byte("x"))
		req := httptest.NewRequest("POST", "/notes/file", buf)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, 400, w.Code, "kind: %q", kind)
	}
}

func TestNotesHandler_CreateFileNote_InsertFailCleansObject(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 元数据写入失败
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `notes`").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	router := gin.New()
	h, dir := newTestNotesHandler(t)
	router.POST("/notes/file", withUser(1, "student@x.com"), h.CreateFileNote)

	buf, contentType := multipartBody(t, map[string]string{"kind": "document"}, "file", "notes.pdf", []byte("pdf"))
	req := httptest.NewRequest("POST", "/notes/file", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 500, w.Code)

	// 已写入的附件被回收，不留孤儿对象
	matches, err := filepath.Glob(filepath.Join(dir, "user-1", "*"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesHandler_ListNotes_KindFilter(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `notes`").
		WithArgs(uint(1), "photo").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "content", "kind", "date", "created_at"}).
			AddRow(3, 1, "照片2", "File: b.png (1.00 KB)", "photo", "2026-09-01", time.Now()).
			AddRow(1, 1, "照片1", "File: a.png (1.00 KB)", "photo", "2026-08-30", time.Now()))

	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.GET("/notes", withUser(1, "student@x.com"), h.ListNotes)

	req := httptest.NewRequest("GET", "/notes?kind=photo", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	list := resp["data"].([]interface{})
	require.Len(t, list, 2)
	// 最新在前
	assert.Equal(t, "照片2", list[0].(map[string]interface{})["title"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesHandler_ListNotes_InvalidKind(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.GET("/notes", withUser(1, "student@x.com"), h.ListNotes)

	req := httptest.NewRequest("GET", "/notes?kind=audio", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestNotesHandler_DeleteNote_Idempotent(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	// 记录不存在时直接返回成功
	mock.ExpectQuery("SELECT .* FROM `notes`").
		WithArgs(uint64(42), uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.DELETE("/notes/:id", withUser(1, "student@x.com"), h.DeleteNote)

	req := httptest.NewRequest("DELETE", "/notes/42", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "删除成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotesHandler_DownloadNote_TextHasNoPayload(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	cfg := testConfig()
	config.GlobalConfig = cfg
	defer func() { config.GlobalConfig = nil }()

	mock.ExpectQuery("SELECT .* FROM `notes`").
		WithArgs(uint64(1), uint(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "content", "kind", "object_key"}).
			AddRow(1, 1, "笔记", "内容", "text", ""))

	router := gin.New()
	h, _ := newTestNotesHandler(t)
	router.GET("/notes/:id/download", withUser(1, "student@x.com"), h.DownloadNote)

	req := httptest.NewRequest("GET", "/notes/1/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
