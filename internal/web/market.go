package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/camuig/signal-desk/internal/marketdata"
)

const sparklinePoints = 20

// candlesProxy forwards candle requests to the configured provider. An
// upstream error reply is passed through with its status and body.
func (s *Server) candlesProxy(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.String(http.StatusBadRequest, "Missing symbol")
		return
	}
	if s.candles == nil {
		c.String(http.StatusInternalServerError, marketdata.ErrMissingAPIKey.Error())
		return
	}

	req := marketdata.CandleRequest{
		Symbol:     symbol,
		Resolution: c.Query("resolution"),
		Days:       int(queryInt(c, "days")),
		From:       queryInt(c, "from"),
		To:         queryInt(c, "to"),
	}

	body, err := s.candles.Candles(c.Request.Context(), req)
	var upstream *marketdata.StatusError
	switch {
	case err == nil:
		c.Data(http.StatusOK, "application/json", body)
	case errors.As(err, &upstream):
		c.Data(upstream.Code, "text/plain; charset=utf-8", upstream.Body)
	case errors.Is(err, marketdata.ErrMissingSymbol):
		c.String(http.StatusBadRequest, "Missing symbol")
	default:
		s.logger.Error("candles proxy", "symbol", symbol, "error", err)
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) sparkline(c *gin.Context) {
	n := sparklinePoints
	if v, err := strconv.Atoi(c.Query("n")); err == nil && v > 0 && v <= 500 {
		n = v
	}
	ticker := c.Param("ticker")
	c.JSON(http.StatusOK, gin.H{"ticker": ticker, "values": marketdata.Sparkline(ticker, n)})
}
