package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var statusUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// STK pushes typically resolve inside 60s; give the webhook some slack.
const (
	watchInterval = 2 * time.Second
	watchDeadline = 90 * time.Second
)

type StatusWatchHandler struct {
	ledger Ledger
}

func NewStatusWatchHandler(ledger Ledger) *StatusWatchHandler {
	return &StatusWatchHandler{ledger: ledger}
}

// Watch upgrades to a websocket and pushes the status projection until it
// turns terminal, the deadline passes, or the client goes away. Spares
// mobile clients from hammering the polling endpoint while the STK prompt
// sits on the payer's phone.
func (h *StatusWatchHandler) Watch(c *gin.Context) {
	reference := c.Param("reference")
	conn, err := statusUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[STATUS ws] upgrade failed reference=%s: %v", reference, err)
		return
	}
	defer conn.Close()

	deadline := time.Now().Add(watchDeadline)
	for {
		proj := pendingProjection()
		tx, err := h.ledger.GetByReference(reference)
		if err != nil {
			log.Printf("[STATUS ws] lookup failed reference=%s: %v", reference, err)
		} else if tx != nil {
			proj = projectTransaction(tx)
		}
		if err := conn.WriteJSON(gin.H{"success": true, "payment": proj}); err != nil {
			return
		}
		if proj.Status != ExternalStatusPending || time.Now().After(deadline) {
			return
		}
		select {
		case <-c.Request.Context().Done():
			return
		case <-time.After(watchInterval):
		}
	}
}
