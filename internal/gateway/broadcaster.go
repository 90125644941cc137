package gateway

import (
	"context"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/mbeoliero/kit/log"
)

// push targets
const (
	targetUser = iota
	targetRole
	targetAll
)

// PushTask represents one queued event fan-out
type PushTask struct {
	Target  int
	User    entity.Identity
	Role    entity.IdentityType
	Event   string
	Payload interface{}
}

// Broadcaster fans events out to live connections. It implements the
// service layer's EventSink: enqueue is non-blocking and a full queue
// drops the event rather than stalling a business write.
type Broadcaster struct {
	registry *Registry
	pushChan chan *PushTask
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(registry *Registry, queueSize int) *Broadcaster {
	if queueSize <= 0 {
		queueSize = 10000
	}
	return &Broadcaster{
		registry: registry,
		pushChan: make(chan *PushTask, queueSize),
	}
}

// Run starts the push workers
func (b *Broadcaster) Run(ctx context.Context, workerNum int) {
	if workerNum <= 0 {
		workerNum = 10
	}
	for i := 0; i < workerNum; i++ {
		go b.pushLoop(ctx)
	}
	log.Info("started %d push workers", workerNum)
}

func (b *Broadcaster) pushLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-b.pushChan:
			b.processPushTask(ctx, task)
		}
	}
}

func (b *Broadcaster) processPushTask(ctx context.Context, task *PushTask) {
	var clients []*Client
	switch task.Target {
	case targetUser:
		clients, _ = b.registry.GetAll(task.User)
	case targetRole:
		clients = b.registry.RoleClients(task.Role)
	case targetAll:
		clients = b.registry.AllClients()
	}

	for _, client := range clients {
		if err := client.PushEvent(task.Event, task.Payload); err != nil {
			log.CtxDebug(ctx, "push to client failed: identity=%s, conn_id=%s, event=%s, error=%v",
				client.Identity.Key(), client.ConnId, task.Event, err)
		}
	}
}

func (b *Broadcaster) enqueue(task *PushTask) {
	select {
	case b.pushChan <- task:
	default:
		log.Warn("push channel full, event dropped: event=%s", task.Event)
	}
}

// BroadcastToUser pushes an event to every connection of one identity
func (b *Broadcaster) BroadcastToUser(id entity.Identity, event string, payload interface{}) {
	b.enqueue(&PushTask{Target: targetUser, User: id, Event: event, Payload: payload})
}

// BroadcastToRole pushes an event to every connection of an identity type
func (b *Broadcaster) BroadcastToRole(t entity.IdentityType, event string, payload interface{}) {
	b.enqueue(&PushTask{Target: targetRole, Role: t, Event: event, Payload: payload})
}

// BroadcastToAll pushes an event to every connection
func (b *Broadcaster) BroadcastToAll(event string, payload interface{}) {
	b.enqueue(&PushTask{Target: targetAll, Event: event, Payload: payload})
}
