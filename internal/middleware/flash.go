package middleware

import (
	"net/http"

	"saferoute/config"
	"saferoute/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	flashCookie   = "saferoute_messages"
	ctxFlashCfg   = "flash_cfg"
	ctxFlashIn    = "flash_in"
	ctxFlashOut   = "flash_out"
	ctxFlashTaken = "flash_taken"
)

// Flash message levels.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Messages decodes the flash cookie left by the previous response. Messages
// survive until a page renders them via PopMessages.
func Messages(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxFlashCfg, cfg)
		if raw, err := c.Cookie(flashCookie); err == nil && raw != "" {
			if msgs, err := auth.DecodeFlash(cfg, raw); err == nil {
				c.Set(ctxFlashIn, msgs)
			} else {
				setFlashCookie(c, cfg, "", -1)
			}
		}
		c.Next()
	}
}

// Flash queues a message for the next rendered page.
func Flash(c *gin.Context, level, text string) {
	out := append(messagesAt(c, ctxFlashOut), auth.Message{Level: level, Text: text})
	c.Set(ctxFlashOut, out)
	cfg := flashConfig(c)
	if cfg == nil {
		return
	}
	pending := out
	if !c.GetBool(ctxFlashTaken) {
		pending = append(messagesAt(c, ctxFlashIn), out...)
	}
	value, err := auth.EncodeFlash(cfg, pending)
	if err != nil {
		return
	}
	setFlashCookie(c, cfg, value, int(auth.FlashTTL.Seconds()))
}

// PopMessages returns every pending message and clears the cookie.
func PopMessages(c *gin.Context) []auth.Message {
	var msgs []auth.Message
	if !c.GetBool(ctxFlashTaken) {
		msgs = append(msgs, messagesAt(c, ctxFlashIn)...)
	}
	msgs = append(msgs, messagesAt(c, ctxFlashOut)...)
	c.Set(ctxFlashTaken, true)
	c.Set(ctxFlashOut, []auth.Message(nil))
	if cfg := flashConfig(c); cfg != nil && len(msgs) > 0 {
		setFlashCookie(c, cfg, "", -1)
	}
	return msgs
}

func messagesAt(c *gin.Context, key string) []auth.Message {
	v, ok := c.Get(key)
	if !ok {
		return nil
	}
	msgs, _ := v.([]auth.Message)
	return msgs
}

func flashConfig(c *gin.Context) *config.JWTConfig {
	v, ok := c.Get(ctxFlashCfg)
	if !ok {
		return nil
	}
	cfg, _ := v.(*config.JWTConfig)
	return cfg
}

func setFlashCookie(c *gin.Context, cfg *config.JWTConfig, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, maxAge, "/", "", cfg.SecureCookie, true)
}
