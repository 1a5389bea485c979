package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/lab-registry/internal/config"
)

const defaultKeyBodyBytes = 64 << 10

// captureWriter copies the response body, up to limit bytes, while
// forwarding it to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	limit  int
	over   bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
		cw.over = true
	} else {
		cw.buf.Write(b)
	}
	return cw.ResponseWriter.Write(b)
}

// NewRedisCache caches successful reads in Redis and drops them all when
// any write succeeds. Read keys embed a generation counter; a successful
// request with a non-cached method increments it, so older entries are
// never read again and expire by TTL.
//
// Several read routes accept ids in a JSON body, so the body is part of
// the key.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passThrough
	}
	genKey := cfg.GenerationKey()
	ttl := cfg.TTL
	if ttl < time.Second {
		ttl = time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if !cfg.Methods[c.Request().Method] {
				err := next(c)
				if err == nil && c.Response().Status < http.StatusMultipleChoices {
					if ierr := rdb.Incr(ctx, genKey).Err(); ierr != nil {
						log.Warn("cache invalidation failed", zap.Error(ierr))
					}
				}
				return err
			}

			gen, err := rdb.Get(ctx, genKey).Int64()
			if err != nil && err != redis.Nil {
				log.Warn("cache generation unavailable", zap.Error(err))
				return next(c)
			}
			key, err := cacheKey(cfg.Prefix, gen, cfg.MaxBodyBytes, c)
			if err != nil {
				return next(c)
			}

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, echo.HeaderContentLength) {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(status, hdr.Get(echo.HeaderContentType), body)
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.over {
				return nil
			}
			hdr := c.Response().Header().Clone()
			hdr.Del("X-Cache")
			payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
			if err != nil {
				return nil
			}
			// the request may be cancelled once the response is written
			if err := rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err(); err != nil {
				log.Warn("cache store failed", zap.Error(err))
			}
			return nil
		}
	}
}

// errBodyTooLarge marks a read whose body is too large to key; it bypasses
// the cache.
var errBodyTooLarge = errors.New("request body too large to cache")

// cacheKey hashes the route, query and body of a read under the current
// generation. At most limit bytes of body are buffered; the body is
// restored for the handler either way.
func cacheKey(prefix string, gen int64, limit int, c echo.Context) (string, error) {
	if limit <= 0 {
		limit = defaultKeyBodyBytes
	}
	r := c.Request()
	var body []byte
	if r.Body != nil && r.Body != http.NoBody {
		orig := r.Body
		b, err := io.ReadAll(io.LimitReader(orig, int64(limit)+1))
		if err != nil {
			return "", err
		}
		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(b), orig), orig}
		if len(b) > limit {
			return "", errBodyTooLarge
		}
		body = b
	}
	h := sha1.New()
	fmt.Fprintf(h, "%s\n%s\n%s\n", r.Method, c.Path(), r.URL.RawQuery)
	h.Write(body)
	return fmt.Sprintf("%s:%d:%x", prefix, gen, h.Sum(nil)), nil
}

// encodePayload packs [4 bytes status][4 bytes header length][header JSON][body].
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = http.Header{}
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}
