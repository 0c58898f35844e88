package response

import (
	"errors"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestAttachmentEscapesFilename(t *testing.T) {
	cases := []string{
		"timetable-10-A-2025-01-06.csv",
		`timetable-10"A-2025-01-06.csv`,
		"timetable-10;A\\B-2025-01-06.pdf",
		"jadwal-kelas-Ä-2025-01-06.pdf",
	}
	for _, name := range cases {
		t.Run(name, func(t *testing.T) {
			c, w := newContext()
			Attachment(c, name, "text/csv", []byte("a,b"))

			require.Equal(t, http.StatusOK, w.Code)
			mediaType, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", mediaType)
			assert.Equal(t, name, params["filename"])
			assert.Equal(t, "a,b", w.Body.String())
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Clone(appErrors.ErrNotFound, "no timetable found for that date"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
	assert.Contains(t, w.Body.String(), "no timetable found for that date")
}

func TestErrorEnvelopeDefaultsToInternal(t *testing.T) {
	c, w := newContext()
	Error(c, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
}
