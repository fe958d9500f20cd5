package listener

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pixil98/go-storyweave/internal/display"
	"github.com/pixil98/go-storyweave/internal/dynamic"
	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/placeholder"
)

type errorResponse struct {
	Error string `json:"error"`
}

type interpretRequest struct {
	Text     string   `json:"text"`
	PlayerID string   `json:"playerID"`
	BlockID  string   `json:"blockId"`
	StoryIDs []string `json:"storyIds"`
}

func (l *HTTPListener) handleDynamic(c *gin.Context) {
	var req dynamic.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	res, err := l.svc.Generate(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (l *HTTPListener) handleChoice(c *gin.Context) {
	var req dynamic.ChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	choice, err := l.svc.RecordChoice(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, choice)
}

func (l *HTTPListener) handleInterpret(c *gin.Context) {
	var req interpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	text := l.interp.Interpret(c.Request.Context(), req.Text, placeholder.Scope{
		PlayerID: req.PlayerID,
		BlockID:  req.BlockID,
		StoryIDs: req.StoryIDs,
	})
	c.JSON(http.StatusOK, gin.H{"text": text})
}

func (l *HTTPListener) handleStory(c *gin.Context) {
	playerID := c.Param("id")

	width := 0
	if w := c.Query("width"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "width must be a non-negative integer"})
			return
		}
		width = n
	}

	var storyIDs []string
	if s := c.Query("stories"); s != "" {
		for _, id := range strings.Split(s, ",") {
			if id = strings.TrimSpace(id); id != "" {
				storyIDs = append(storyIDs, id)
			}
		}
	}

	text := l.svc.Story(c.Request.Context(), playerID, storyIDs)
	c.JSON(http.StatusOK, gin.H{"playerID": playerID, "story": display.Wrap(text, width)})
}

// writeError maps service errors to status codes. Generation failures carry
// their state trail and provider detail to the client.
func writeError(c *gin.Context, err error) {
	var ge *dynamic.GenerationError
	if errors.As(err, &ge) {
		c.JSON(http.StatusBadGateway, ge)
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, dynamic.ErrInvalidRequest),
		errors.Is(err, dynamic.ErrNotChoice),
		errors.Is(err, ledger.ErrInvalidChoice):
		status = http.StatusBadRequest
	case errors.Is(err, dynamic.ErrUnknownBlock):
		status = http.StatusNotFound
	case errors.Is(err, dynamic.ErrNotGenerated),
		errors.Is(err, ledger.ErrChoiceRecorded):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}
