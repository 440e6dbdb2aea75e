package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// BrotliConfig tunes response compression. Problem lists carry every
// description and sample code body, so they are usually well over MinLength.
type BrotliConfig struct {
	Quality   int
	MinLength int
	// ContentTypes are media type prefixes worth compressing.
	ContentTypes []string
	Skipper      func(c *gin.Context) bool
}

var DefaultBrotliConfig = BrotliConfig{
	Quality:      brotli.DefaultCompression,
	MinLength:    1024,
	ContentTypes: []string{"application/json", "text/"},
}

// brotliWriter holds output until MinLength bytes have arrived, then decides
// once whether the rest of the response is compressed or passed through.
type brotliWriter struct {
	gin.ResponseWriter
	cfg     *BrotliConfig
	pool    *sync.Pool
	enc     *brotli.Writer
	buf     []byte
	decided bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	if bw.decided {
		if bw.enc != nil {
			return bw.enc.Write(data)
		}
		return bw.ResponseWriter.Write(data)
	}

	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.cfg.MinLength {
		return len(data), nil
	}
	if err := bw.decide(true); err != nil {
		return 0, err
	}
	return len(data), nil
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush sends whatever is held. An undecided response goes out uncompressed.
func (bw *brotliWriter) Flush() {
	if !bw.decided {
		_ = bw.decide(false)
	}
	if bw.enc != nil {
		_ = bw.enc.Flush()
	}
	bw.ResponseWriter.Flush()
}

// decide picks the encoding and drains the buffer.
func (bw *brotliWriter) decide(large bool) error {
	bw.decided = true
	if large && bw.compressible() {
		h := bw.ResponseWriter.Header()
		h.Set("Content-Encoding", "br")
		h.Del("Content-Length")
		bw.enc = bw.pool.Get().(*brotli.Writer)
		bw.enc.Reset(bw.ResponseWriter)
	}

	if len(bw.buf) == 0 {
		return nil
	}
	var err error
	if bw.enc != nil {
		_, err = bw.enc.Write(bw.buf)
	} else {
		_, err = bw.ResponseWriter.Write(bw.buf)
	}
	bw.buf = nil
	return err
}

func (bw *brotliWriter) compressible() bool {
	if bw.ResponseWriter.Header().Get("Content-Encoding") != "" {
		return false
	}
	ct := bw.ResponseWriter.Header().Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(bw.buf)
	}
	for _, prefix := range bw.cfg.ContentTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// finish runs after the handler chain.
func (bw *brotliWriter) finish() error {
	if !bw.decided {
		if err := bw.decide(false); err != nil {
			return err
		}
	}
	if bw.enc == nil {
		return nil
	}
	err := bw.enc.Close()
	bw.enc.Reset(nil)
	bw.pool.Put(bw.enc)
	bw.enc = nil
	return err
}

// Brotli compresses responses with the default settings.
func Brotli() gin.HandlerFunc {
	return BrotliWithConfig(DefaultBrotliConfig)
}

// BrotliWithConfig compresses responses for clients that accept br.
func BrotliWithConfig(cfg BrotliConfig) gin.HandlerFunc {
	if cfg.Quality < brotli.BestSpeed || cfg.Quality > brotli.BestCompression {
		cfg.Quality = brotli.DefaultCompression
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = DefaultBrotliConfig.MinLength
	}
	if len(cfg.ContentTypes) == 0 {
		cfg.ContentTypes = DefaultBrotliConfig.ContentTypes
	}

	pool := &sync.Pool{New: func() any {
		return brotli.NewWriterLevel(nil, cfg.Quality)
	}}

	return func(c *gin.Context) {
		if shouldSkip(c) || (cfg.Skipper != nil && cfg.Skipper(c)) || !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{ResponseWriter: c.Writer, cfg: &cfg, pool: pool}
		c.Writer = bw
		defer func() {
			if err := bw.finish(); err != nil {
				_ = c.Error(err)
			}
		}()

		c.Next()
	}
}

// shouldSkip reports requests that must be passed through untouched:
// event streams and the change feed WebSocket upgrade.
func shouldSkip(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		return true
	}
	if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return strings.HasPrefix(c.Request.URL.Path, "/ws/")
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		// Drop any ";q=" weight.
		name, _, _ := strings.Cut(enc, ";")
		if strings.EqualFold(strings.TrimSpace(name), "br") {
			return true
		}
	}
	return false
}
