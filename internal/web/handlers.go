package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/camuig/signal-desk/internal/desk"
	"github.com/camuig/signal-desk/internal/signals"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "dry_run": s.desk.DryRun()})
}

// Open signals

func (s *Server) listSignals(c *gin.Context) {
	c.JSON(http.StatusOK, s.desk.ListSignals(c.Query("q"), c.Query("tag"), c.Query("sort")))
}

func (s *Server) getSignal(c *gin.Context) {
	sig, err := s.desk.Signal(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}

func (s *Server) addSignal(c *gin.Context) {
	var rec signals.Signal
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "invalid signal: "+err.Error())
		return
	}
	if err := s.validate.Struct(rec); err != nil {
		s.fail(c, err)
		return
	}
	sig, err := s.desk.AddSignal(rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sig)
}

func (s *Server) updateSignal(c *gin.Context) {
	var patch signals.SignalPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid patch: "+err.Error())
		return
	}
	sig, err := s.desk.UpdateSignal(c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sig)
}

func (s *Server) removeSignal(c *gin.Context) {
	if err := s.desk.RemoveSignal(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) duplicateSignal(c *gin.Context) {
	sig, err := s.desk.DuplicateSignal(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sig)
}

func (s *Server) signalTags(c *gin.Context) {
	c.JSON(http.StatusOK, s.desk.SignalTags())
}

type draftRequest struct {
	Text string `json:"text"`
}

func (s *Server) draftSignals(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		badRequest(c, "text is required")
		return
	}
	drafts, err := s.desk.Draft(c.Request.Context(), req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, drafts)
}

// Close lifecycle

type pendingCloseResponse struct {
	Signal     signals.Signal `json:"signal"`
	ClosePrice float64        `json:"close_price"`
	CloseDate  string         `json:"close_date"`
	DryRun     bool           `json:"dry_run"`
}

func (s *Server) pendingClose(c *gin.Context) {
	p, err := s.desk.PendingClose(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pendingCloseResponse{
		Signal:     p.Signal,
		ClosePrice: p.ClosePrice,
		CloseDate:  p.CloseDate.Format("2006-01-02"),
		DryRun:     s.desk.DryRun(),
	})
}

// closeRequest takes the price as entered: a JSON number or a string.
type closeRequest struct {
	Price json.RawMessage `json:"price"`
	Date  string          `json:"date"`
}

func (r closeRequest) priceText() string {
	var text string
	if err := json.Unmarshal(r.Price, &text); err == nil {
		return text
	}
	return strings.TrimSpace(string(r.Price))
}

func (s *Server) closeSignal(c *gin.Context) {
	var req closeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid close request: "+err.Error())
		return
	}
	date, ok := parseDate(req.Date)
	if !ok {
		badRequest(c, "date must be YYYY-MM-DD or RFC 3339")
		return
	}
	trade, err := s.desk.CloseSignal(c.Param("id"), date, req.priceText())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, trade)
}

// parseDate returns the zero time for empty input so the close reports a
// missing date.
func parseDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, true
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Closed trades

func (s *Server) listClosed(c *gin.Context) {
	c.JSON(http.StatusOK, s.desk.ListClosed(c.Query("q"), c.Query("tag"), c.Query("sort")))
}

func (s *Server) getClosed(c *gin.Context) {
	t, err := s.desk.ClosedTrade(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) addClosed(c *gin.Context) {
	var rec signals.ClosedTrade
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "invalid closed trade: "+err.Error())
		return
	}
	if err := s.validate.Struct(rec); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.desk.AddClosedTrade(rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) updateClosed(c *gin.Context) {
	var patch signals.ClosedTradePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid patch: "+err.Error())
		return
	}
	t, err := s.desk.UpdateClosedTrade(c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) removeClosed(c *gin.Context) {
	if err := s.desk.RemoveClosedTrade(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) duplicateClosed(c *gin.Context) {
	t, err := s.desk.DuplicateClosedTrade(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (s *Server) closedTags(c *gin.Context) {
	c.JSON(http.StatusOK, s.desk.ClosedTags())
}

// Summary and preferences

func (s *Server) summary(c *gin.Context) {
	sum, err := s.desk.Summary(c.Query("unit"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, sum)
}

type valueRequest struct {
	Value string `json:"value"`
}

func (s *Server) getClosedView(c *gin.Context) {
	u, err := s.desk.ClosedViewUnit()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valueRequest{Value: string(u)})
}

func (s *Server) putClosedView(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "value is required")
		return
	}
	u, err := s.desk.SetClosedViewUnit(req.Value)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, valueRequest{Value: string(u)})
}

func (s *Server) listPreferences(c *gin.Context) {
	prefs, err := s.desk.Preferences()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) getTheme(c *gin.Context) {
	theme, err := s.desk.Theme()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, valueRequest{Value: theme})
}

func (s *Server) putTheme(c *gin.Context) {
	var req valueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "value is required")
		return
	}
	if err := s.desk.SetTheme(req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// Import, export and push

func (s *Server) importCollection(c *gin.Context) {
	col, err := desk.ParseCollection(c.Param("collection"))
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, 10<<20))
	if err != nil {
		badRequest(c, "read body: "+err.Error())
		return
	}
	n, err := s.desk.Import(col, data)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": col, "records": n})
}

func (s *Server) exportCollection(c *gin.Context) {
	col, err := desk.ParseCollection(c.Param("collection"))
	if err != nil {
		s.fail(c, err)
		return
	}
	data, err := s.desk.Export(col)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+col.FileName()+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

type dirRequest struct {
	Path string `json:"path"`
}

func (s *Server) getDefaultDir(c *gin.Context) {
	path, ok, err := s.desk.DefaultDir()
	if err != nil {
		s.fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": desk.ErrNoDefaultDir.Error()})
		return
	}
	c.JSON(http.StatusOK, dirRequest{Path: path})
}

func (s *Server) putDefaultDir(c *gin.Context) {
	var req dirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "path is required")
		return
	}
	if err := s.desk.SetDefaultDir(req.Path); err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, req)
}

func (s *Server) clearDefaultDir(c *gin.Context) {
	if err := s.desk.ClearDefaultDir(); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) pushCollection(c *gin.Context) {
	col, err := desk.ParseCollection(c.Param("collection"))
	if err != nil {
		s.fail(c, err)
		return
	}
	path, err := s.desk.Push(col)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dirRequest{Path: path})
}

func queryInt(c *gin.Context, key string) int64 {
	v, err := strconv.ParseInt(c.Query(key), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
