package service

import (
	"context"
	"sort"
	"testing"

	"github.com/flowgrid/flowgrid/internal/entity"
	"github.com/flowgrid/flowgrid/internal/repository"
	"github.com/flowgrid/flowgrid/pkg/constant"
	"github.com/flowgrid/flowgrid/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recordedEvent captures one broadcast for assertions.
type recordedEvent struct {
	Target  string // "user", "role", "all"
	User    entity.Identity
	Role    entity.IdentityType
	Event   string
	Payload interface{}
}

type recordingSink struct {
	events []recordedEvent
}

func (r *recordingSink) BroadcastToUser(id entity.Identity, event string, payload interface{}) {
	r.events = append(r.events, recordedEvent{Target: "user", User: id, Event: event, Payload: payload})
}

func (r *recordingSink) BroadcastToRole(t entity.IdentityType, event string, payload interface{}) {
	r.events = append(r.events, recordedEvent{Target: "role", Role: t, Event: event, Payload: payload})
}

func (r *recordingSink) BroadcastToAll(event string, payload interface{}) {
	r.events = append(r.events, recordedEvent{Target: "all", Event: event, Payload: payload})
}

func (r *recordingSink) named(event string) []recordedEvent {
	var out []recordedEvent
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

type fakeConvStore struct {
	convs     map[string]*entity.Conversation
	createErr error
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{convs: make(map[string]*entity.Conversation)}
}

func (f *fakeConvStore) Find(ctx context.Context, consumerId, plantId string) (*entity.Conversation, error) {
	for _, c := range f.convs {
		if c.ConsumerId == consumerId && c.PlantId == plantId {
			return c, nil
		}
	}
	return nil, nil
}

func (f *fakeConvStore) Create(ctx context.Context, conv *entity.Conversation) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	f.convs[conv.Id] = conv
	return nil
}

func (f *fakeConvStore) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	return f.convs[id], nil
}

func (f *fakeConvStore) TouchLastMessageAt(ctx context.Context, id string, ts int64) error {
	if c, ok := f.convs[id]; ok {
		c.LastMessageAt = ts
	}
	return nil
}

func (f *fakeConvStore) ListByParticipant(ctx context.Context, t entity.IdentityType, participantId string) ([]*entity.Conversation, error) {
	var out []*entity.Conversation
	for _, c := range f.convs {
		if c.Participant(t) == participantId {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConvStore) Search(ctx context.Context, q *repository.AdminConversationQuery) ([]*entity.Conversation, int64, error) {
	var out []*entity.Conversation
	for _, c := range f.convs {
		out = append(out, c)
	}
	return out, int64(len(out)), nil
}

type fakeMsgStore struct {
	msgs []*entity.Message
}

func (f *fakeMsgStore) Append(ctx context.Context, msg *entity.Message) error {
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeMsgStore) GetById(ctx context.Context, id string) (*entity.Message, error) {
	for _, m := range f.msgs {
		if m.Id == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMsgStore) List(ctx context.Context, conversationId string, q repository.ListMessagesQuery) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, m := range f.msgs {
		if m.ConversationId != conversationId {
			continue
		}
		if q.BeforeSentAt > 0 && m.SentAt >= q.BeforeSentAt {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt > out[j].SentAt })
	if q.BeforeSentAt == 0 && q.Offset > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (f *fakeMsgStore) UnreadIds(ctx context.Context, conversationId string, fromSender entity.IdentityType) ([]string, error) {
	var ids []string
	for _, m := range f.msgs {
		if m.ConversationId == conversationId && m.SenderType == fromSender && m.ReadAt == nil {
			ids = append(ids, m.Id)
		}
	}
	return ids, nil
}

func (f *fakeMsgStore) MarkRead(ctx context.Context, ids []string, readAt int64) (int64, error) {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	var n int64
	for _, m := range f.msgs {
		if _, ok := idSet[m.Id]; ok && m.ReadAt == nil {
			ts := readAt
			m.ReadAt = &ts
			n++
		}
	}
	return n, nil
}

func (f *fakeMsgStore) SetDelivered(ctx context.Context, id string, ts int64) (bool, error) {
	for _, m := range f.msgs {
		if m.Id == id {
			if m.DeliveredAt != nil {
				return false, nil
			}
			v := ts
			m.DeliveredAt = &v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMsgStore) SetRead(ctx context.Context, id string, ts int64) (bool, error) {
	for _, m := range f.msgs {
		if m.Id == id {
			if m.ReadAt != nil {
				return false, nil
			}
			v := ts
			m.ReadAt = &v
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMsgStore) CountUnread(ctx context.Context, conversationId string, fromSender entity.IdentityType) (int64, error) {
	ids, _ := f.UnreadIds(ctx, conversationId, fromSender)
	return int64(len(ids)), nil
}

func (f *fakeMsgStore) CountUnreadIn(ctx context.Context, conversationIds []string, fromSender entity.IdentityType) (int64, error) {
	var total int64
	for _, id := range conversationIds {
		n, _ := f.CountUnread(ctx, id, fromSender)
		total += n
	}
	return total, nil
}

func (f *fakeMsgStore) Stats(ctx context.Context) (*entity.ChatStats, error) {
	return &entity.ChatStats{TotalMessages: int64(len(f.msgs))}, nil
}

type fakeAccountStore struct {
	consumers map[string]*entity.Consumer
	owners    map[string]*entity.Owner
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		consumers: make(map[string]*entity.Consumer),
		owners:    make(map[string]*entity.Owner),
	}
}

func (f *fakeAccountStore) GetConsumer(ctx context.Context, id string) (*entity.Consumer, error) {
	if c, ok := f.consumers[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountStore) GetOwner(ctx context.Context, id string) (*entity.Owner, error) {
	if o, ok := f.owners[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountStore) GetAdmin(ctx context.Context, id string) (*entity.Admin, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountStore) GetConsumerByEmail(ctx context.Context, email string) (*entity.Consumer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountStore) GetOwnerByEmail(ctx context.Context, email string) (*entity.Owner, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountStore) GetAdminByEmail(ctx context.Context, email string) (*entity.Admin, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAccountStore) CreateConsumer(ctx context.Context, c *entity.Consumer) error {
	f.consumers[c.Id] = c
	return nil
}

func (f *fakeAccountStore) CreateOwner(ctx context.Context, o *entity.Owner) error {
	f.owners[o.Id] = o
	return nil
}

func (f *fakeAccountStore) UpdateConsumer(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (f *fakeAccountStore) UpdateOwner(ctx context.Context, id string, updates map[string]interface{}) error {
	return nil
}

func (f *fakeAccountStore) ReadReceiptsEnabled(ctx context.Context, id entity.Identity) (bool, error) {
	switch id.Type {
	case entity.IdentityConsumer:
		if c, ok := f.consumers[id.Id]; ok {
			return c.ReadReceiptsEnabled, nil
		}
	case entity.IdentityOwner:
		if o, ok := f.owners[id.Id]; ok {
			return o.ReadReceiptsEnabled, nil
		}
	}
	return true, nil
}

type fakePlantStore struct {
	plants map[string]*entity.Plant
}

func newFakePlantStore() *fakePlantStore {
	return &fakePlantStore{plants: make(map[string]*entity.Plant)}
}

func (f *fakePlantStore) Create(ctx context.Context, p *entity.Plant) error {
	f.plants[p.Id] = p
	return nil
}

func (f *fakePlantStore) GetById(ctx context.Context, id string) (*entity.Plant, error) {
	return f.plants[id], nil
}

func (f *fakePlantStore) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	p, ok := f.plants[id]
	if !ok {
		return nil
	}
	if v, ok := updates["verified"].(bool); ok {
		p.Verified = v
	}
	if v, ok := updates["name"].(string); ok {
		p.Name = v
	}
	if v, ok := updates["address"].(string); ok {
		p.Address = v
	}
	return nil
}

func (f *fakePlantStore) Delete(ctx context.Context, id string) error {
	delete(f.plants, id)
	return nil
}

func (f *fakePlantStore) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Plant, error) {
	var out []*entity.Plant
	for _, p := range f.plants {
		if p.OwnerId == ownerId {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePlantStore) ListAll(ctx context.Context, offset, limit int) ([]*entity.Plant, error) {
	var out []*entity.Plant
	for _, p := range f.plants {
		out = append(out, p)
	}
	return out, nil
}

type fakeNotificationStore struct {
	notices []*entity.Notification
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *entity.Notification) error {
	f.notices = append(f.notices, n)
	return nil
}

func (f *fakeNotificationStore) ListByOwner(ctx context.Context, ownerId string) ([]*entity.Notification, error) {
	var out []*entity.Notification
	for _, n := range f.notices {
		if n.OwnerId == ownerId {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id, ownerId string, readAt int64) error {
	return nil
}

// chatFixture wires a ChatService over in-memory fakes with one consumer,
// one owner, one plant and one conversation.
type chatFixture struct {
	svc      *ChatService
	sink     *recordingSink
	convs    *fakeConvStore
	msgs     *fakeMsgStore
	accounts *fakeAccountStore
	plants   *fakePlantStore
	notices  *fakeNotificationStore

	consumer entity.Identity
	owner    entity.Identity
	conv     *entity.Conversation
	plant    *entity.Plant
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	f := &chatFixture{
		sink:     &recordingSink{},
		convs:    newFakeConvStore(),
		msgs:     &fakeMsgStore{},
		accounts: newFakeAccountStore(),
		plants:   newFakePlantStore(),
		notices:  &fakeNotificationStore{},
	}

	f.accounts.consumers["c1"] = &entity.Consumer{
		Id: "c1", Name: "Carol Real", DisplayName: "Carol", ReadReceiptsEnabled: true,
	}
	f.accounts.owners["o1"] = &entity.Owner{
		Id: "o1", Name: "AquaPure Station", ReadReceiptsEnabled: true,
	}
	f.plant = &entity.Plant{Id: "p1", OwnerId: "o1", Name: "AquaPure", Address: "12 Well St"}
	f.plants.plants["p1"] = f.plant

	f.conv = &entity.Conversation{Id: "conv1", ConsumerId: "c1", OwnerId: "o1", PlantId: "p1"}
	f.convs.convs["conv1"] = f.conv

	f.consumer = entity.Identity{Type: entity.IdentityConsumer, Id: "c1"}
	f.owner = entity.Identity{Type: entity.IdentityOwner, Id: "o1"}

	f.svc = &ChatService{
		convStore: f.convs,
		msgStore:  f.msgs,
		accounts:  f.accounts,
		plants:    f.plants,
		notices:   f.notices,
		sink:      f.sink,
	}
	return f
}

func (f *chatFixture) seedMessage(id string, sender entity.Identity, sentAt int64) *entity.Message {
	msg := &entity.Message{
		Id:             id,
		ConversationId: f.conv.Id,
		SenderType:     sender.Type,
		SenderId:       sender.Id,
		Content:        "msg " + id,
		SentAt:         sentAt,
	}
	f.msgs.msgs = append(f.msgs.msgs, msg)
	return msg
}

func TestGetOrCreateConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("creates on first contact and notifies admins", func(t *testing.T) {
		f := newChatFixture(t)
		delete(f.convs.convs, "conv1")

		info, err := f.svc.GetOrCreateConversation(ctx, "c1", "p1")
		require.NoError(t, err)
		assert.NotEmpty(t, info.Id)
		assert.Equal(t, "AquaPure", info.PlantName)
		assert.Equal(t, "AquaPure Station", info.OtherPartyName)

		created := f.sink.named(constant.EventChatCreated)
		require.Len(t, created, 1)
		assert.Equal(t, entity.IdentityAdmin, created[0].Role)
	})

	t.Run("returns existing conversation without admin event", func(t *testing.T) {
		f := newChatFixture(t)

		info, err := f.svc.GetOrCreateConversation(ctx, "c1", "p1")
		require.NoError(t, err)
		assert.Equal(t, "conv1", info.Id)
		assert.Empty(t, f.sink.named(constant.EventChatCreated))
	})

	t.Run("loses creation race and adopts winner row", func(t *testing.T) {
		f := newChatFixture(t)
		delete(f.convs.convs, "conv1")
		f.convs.createErr = gorm.ErrDuplicatedKey
		// The winner's row appears between Find and Create.
		f.convs.convs["winner"] = &entity.Conversation{
			Id: "winner", ConsumerId: "c1", OwnerId: "o1", PlantId: "p1",
		}

		info, err := f.svc.GetOrCreateConversation(ctx, "c1", "p1")
		require.NoError(t, err)
		assert.Equal(t, "winner", info.Id)
		assert.Empty(t, f.sink.named(constant.EventChatCreated))
	})

	t.Run("unknown plant", func(t *testing.T) {
		f := newChatFixture(t)

		_, err := f.svc.GetOrCreateConversation(ctx, "c1", "ghost")
		assert.ErrorIs(t, err, errcode.ErrPlantNotFound)
	})
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to both parties and admins", func(t *testing.T) {
		f := newChatFixture(t)

		info, err := f.svc.SendMessage(ctx, "conv1", f.consumer, "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello", info.Content)
		assert.Nil(t, info.ReadAt)

		news := f.sink.named(constant.EventMessageNew)
		require.Len(t, news, 2)
		targets := map[string]bool{}
		for _, e := range news {
			targets[e.User.Key()] = true
		}
		assert.True(t, targets[f.consumer.Key()])
		assert.True(t, targets[f.owner.Key()])

		adminCopies := f.sink.named(constant.EventChatMessage)
		require.Len(t, adminCopies, 1)
		assert.Equal(t, entity.IdentityAdmin, adminCopies[0].Role)
	})

	t.Run("delivery ignores read receipt settings", func(t *testing.T) {
		f := newChatFixture(t)
		f.accounts.consumers["c1"].ReadReceiptsEnabled = false
		f.accounts.owners["o1"].ReadReceiptsEnabled = false

		_, err := f.svc.SendMessage(ctx, "conv1", f.owner, "still delivered")
		require.NoError(t, err)
		assert.Len(t, f.sink.named(constant.EventMessageNew), 2)
		assert.Len(t, f.sink.named(constant.EventChatMessage), 1)
	})

	t.Run("consumer message notifies the owner", func(t *testing.T) {
		f := newChatFixture(t)

		_, err := f.svc.SendMessage(ctx, "conv1", f.consumer, "hi")
		require.NoError(t, err)
		require.Len(t, f.notices.notices, 1)
		assert.Equal(t, "o1", f.notices.notices[0].OwnerId)
		assert.Equal(t, constant.NotificationNewMessage, f.notices.notices[0].Type)
	})

	t.Run("owner message creates no notification", func(t *testing.T) {
		f := newChatFixture(t)

		_, err := f.svc.SendMessage(ctx, "conv1", f.owner, "hi")
		require.NoError(t, err)
		assert.Empty(t, f.notices.notices)
	})

	t.Run("rejects blank content", func(t *testing.T) {
		f := newChatFixture(t)

		_, err := f.svc.SendMessage(ctx, "conv1", f.consumer, "   ")
		assert.ErrorIs(t, err, errcode.ErrEmptyContent)
	})

	t.Run("rejects non participant", func(t *testing.T) {
		f := newChatFixture(t)
		stranger := entity.Identity{Type: entity.IdentityConsumer, Id: "c999"}

		_, err := f.svc.SendMessage(ctx, "conv1", stranger, "hi")
		assert.ErrorIs(t, err, errcode.ErrConvAccess)
	})
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("ascending order with has_more probe", func(t *testing.T) {
		f := newChatFixture(t)
		for i := 1; i <= 5; i++ {
			f.seedMessage(string(rune('a'+i-1)), f.consumer, int64(i*1000))
		}

		resp, err := f.svc.ListMessages(ctx, "conv1", f.consumer, &ListMessagesRequest{Limit: 3})
		require.NoError(t, err)
		assert.True(t, resp.HasMore)
		require.Len(t, resp.Messages, 3)
		// Newest three, oldest first.
		assert.Equal(t, "c", resp.Messages[0].Id)
		assert.Equal(t, "e", resp.Messages[2].Id)
	})

	t.Run("last page reports no more", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedMessage("m1", f.consumer, 1000)
		f.seedMessage("m2", f.owner, 2000)

		resp, err := f.svc.ListMessages(ctx, "conv1", f.consumer, &ListMessagesRequest{Limit: 10})
		require.NoError(t, err)
		assert.False(t, resp.HasMore)
		assert.Len(t, resp.Messages, 2)
	})

	t.Run("before cursor returns strictly older messages", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedMessage("m1", f.consumer, 1000)
		f.seedMessage("m2", f.owner, 2000)
		f.seedMessage("m3", f.consumer, 3000)

		resp, err := f.svc.ListMessages(ctx, "conv1", f.consumer, &ListMessagesRequest{Limit: 10, Before: "m3"})
		require.NoError(t, err)
		require.Len(t, resp.Messages, 2)
		assert.Equal(t, "m1", resp.Messages[0].Id)
		assert.Equal(t, "m2", resp.Messages[1].Id)
	})

	t.Run("hides read_at on own messages when counterpart disables receipts", func(t *testing.T) {
		f := newChatFixture(t)
		f.accounts.owners["o1"].ReadReceiptsEnabled = false
		readAt := int64(5000)
		sent := f.seedMessage("mine", f.consumer, 1000)
		sent.ReadAt = &readAt
		received := f.seedMessage("theirs", f.owner, 2000)
		received.ReadAt = &readAt

		resp, err := f.svc.ListMessages(ctx, "conv1", f.consumer, &ListMessagesRequest{Limit: 10})
		require.NoError(t, err)
		require.Len(t, resp.Messages, 2)
		assert.Nil(t, resp.Messages[0].ReadAt, "own message read_at must be hidden")
		assert.NotNil(t, resp.Messages[1].ReadAt, "received message read_at always shows")
	})

	t.Run("shows read_at when counterpart allows receipts", func(t *testing.T) {
		f := newChatFixture(t)
		readAt := int64(5000)
		sent := f.seedMessage("mine", f.consumer, 1000)
		sent.ReadAt = &readAt

		resp, err := f.svc.ListMessages(ctx, "conv1", f.consumer, &ListMessagesRequest{Limit: 10})
		require.NoError(t, err)
		require.Len(t, resp.Messages, 1)
		assert.NotNil(t, resp.Messages[0].ReadAt)
	})

	t.Run("owner sees consumer display name only", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedMessage("m1", f.consumer, 1000)

		resp, err := f.svc.ListMessages(ctx, "conv1", f.owner, &ListMessagesRequest{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, "Carol", resp.Conversation.OtherPartyName)
		assert.NotEqual(t, "Carol Real", resp.Conversation.OtherPartyName)
	})
}

func TestMarkAsRead(t *testing.T) {
	ctx := context.Background()

	t.Run("no unread is a no-op", func(t *testing.T) {
		f := newChatFixture(t)

		require.NoError(t, f.svc.MarkAsRead(ctx, "conv1", f.consumer))
		assert.Empty(t, f.sink.events)
	})

	t.Run("persists read_at and notifies sender when reader allows", func(t *testing.T) {
		f := newChatFixture(t)
		msg := f.seedMessage("m1", f.owner, 1000)

		require.NoError(t, f.svc.MarkAsRead(ctx, "conv1", f.consumer))
		require.NotNil(t, msg.ReadAt)

		reads := f.sink.named(constant.EventMessagesRead)
		require.Len(t, reads, 1)
		assert.Equal(t, f.owner.Key(), reads[0].User.Key())

		assert.Len(t, f.sink.named(constant.EventConversationUpdated), 2)
		assert.Len(t, f.sink.named(constant.EventChatUpdated), 1)
	})

	t.Run("reader with receipts off still persists but stays silent to sender", func(t *testing.T) {
		f := newChatFixture(t)
		f.accounts.consumers["c1"].ReadReceiptsEnabled = false
		msg := f.seedMessage("m1", f.owner, 1000)

		require.NoError(t, f.svc.MarkAsRead(ctx, "conv1", f.consumer))
		require.NotNil(t, msg.ReadAt, "read_at persists regardless of the flag")
		assert.Empty(t, f.sink.named(constant.EventMessagesRead))

		// Admins always hear about reads.
		adminReads := f.sink.named(constant.EventChatRead)
		require.Len(t, adminReads, 1)
		assert.Equal(t, entity.IdentityAdmin, adminReads[0].Role)
	})
}

func TestMessageAcks(t *testing.T) {
	ctx := context.Background()

	t.Run("delivery ack notifies the sender once", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedMessage("m1", f.consumer, 1000)

		require.NoError(t, f.svc.MarkMessageDelivered(ctx, "m1", f.owner))
		require.Len(t, f.sink.named(constant.EventMessageDelivered), 1)

		// Second ack is absorbed.
		require.NoError(t, f.svc.MarkMessageDelivered(ctx, "m1", f.owner))
		assert.Len(t, f.sink.named(constant.EventMessageDelivered), 1)
	})

	t.Run("sender cannot ack own message", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedMessage("m1", f.consumer, 1000)

		err := f.svc.MarkMessageDelivered(ctx, "m1", f.consumer)
		assert.ErrorIs(t, err, errcode.ErrNoPermission)
		err = f.svc.MarkMessageRead(ctx, "m1", f.consumer)
		assert.ErrorIs(t, err, errcode.ErrNoPermission)
	})

	t.Run("read ack respects reader privacy but always reaches admins", func(t *testing.T) {
		f := newChatFixture(t)
		f.accounts.owners["o1"].ReadReceiptsEnabled = false
		msg := f.seedMessage("m1", f.consumer, 1000)

		require.NoError(t, f.svc.MarkMessageRead(ctx, "m1", f.owner))
		require.NotNil(t, msg.ReadAt)
		assert.Empty(t, f.sink.named(constant.EventMessagesRead))
		assert.Len(t, f.sink.named(constant.EventChatRead), 1)
	})

	t.Run("unknown message", func(t *testing.T) {
		f := newChatFixture(t)

		err := f.svc.MarkMessageRead(ctx, "ghost", f.owner)
		assert.ErrorIs(t, err, errcode.ErrMessageNotFound)
	})
}

func TestListConversations(t *testing.T) {
	ctx := context.Background()

	t.Run("consumer sees owner business name", func(t *testing.T) {
		f := newChatFixture(t)

		infos, err := f.svc.ListConversations(ctx, f.consumer)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, "AquaPure Station", infos[0].OtherPartyName)
	})

	t.Run("unread counts only counterpart messages", func(t *testing.T) {
		f := newChatFixture(t)
		f.seedMessage("m1", f.owner, 1000)
		f.seedMessage("m2", f.owner, 2000)
		f.seedMessage("m3", f.consumer, 3000)

		infos, err := f.svc.ListConversations(ctx, f.consumer)
		require.NoError(t, err)
		require.Len(t, infos, 1)
		assert.Equal(t, int64(2), infos[0].UnreadCount)
		require.NotNil(t, infos[0].LastMessage)
		assert.Equal(t, "msg m3", infos[0].LastMessage.Content)
	})
}

func TestRelayTyping(t *testing.T) {
	ctx := context.Background()

	f := newChatFixture(t)
	require.NoError(t, f.svc.RelayTyping(ctx, "conv1", f.consumer, true))

	typed := f.sink.named(constant.EventUserTyping)
	require.Len(t, typed, 1)
	assert.Equal(t, f.owner.Key(), typed[0].User.Key())

	// Nothing is persisted for typing.
	assert.Empty(t, f.msgs.msgs)
}

func TestVerifyConversationAccess(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)

	ok, err := f.svc.VerifyConversationAccess(ctx, "conv1", f.consumer)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.VerifyConversationAccess(ctx, "conv1", entity.Identity{Type: entity.IdentityAdmin, Id: "a1"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.VerifyConversationAccess(ctx, "conv1", entity.Identity{Type: entity.IdentityOwner, Id: "o999"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.VerifyConversationAccess(ctx, "ghost", f.consumer)
	require.NoError(t, err)
	assert.False(t, ok)
}
