package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const auditBodyLimit = 4096

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if r.body.Len() < auditBodyLimit {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// replayBody 把预读的部分拼回请求体
type replayBody struct {
	io.Reader
	io.Closer
}

func clip(s string) string {
	if len(s) <= auditBodyLimit {
		return s
	}
	return s[:auditBodyLimit] + "...(truncated)"
}

// AuditMiddleware 记录请求与响应，上传的文件内容不记录
func AuditMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		reqBody := ""
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			reqBody = "<multipart>"
		} else if c.Request.Body != nil {
			// 只预读日志需要的部分，其余内容仍由下游按需读取
			head, _ := io.ReadAll(io.LimitReader(c.Request.Body, auditBodyLimit+1))
			c.Request.Body = replayBody{
				Reader: io.MultiReader(bytes.NewReader(head), c.Request.Body),
				Closer: c.Request.Body,
			}
			reqBody = clip(string(head))
		}

		rawQuery := c.Request.URL.RawQuery
		decodedQuery, err := url.QueryUnescape(rawQuery)
		if err != nil {
			decodedQuery = rawQuery
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", decodedQuery),
			log.String("req_body", reqBody),
		)

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		log.InfoContext(c.Request.Context(), "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", time.Since(startTime)),
			log.String("res_body", w.body.String()),
		)
	}
}
