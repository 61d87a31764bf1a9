package notify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fired = time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)

func TestNotification_Message(t *testing.T) {
	n := Notification{TaskID: "t1", Title: "Pay rent", FiresAt: fired}
	assert.Equal(t, "Reminder — Pay rent at Thu May 1 2025 08:30", n.Message())
}

func TestPanel_KeepsNewestFirstAndBounds(t *testing.T) {
	p := NewPanel(2)
	assert.False(t, p.IsOpen())

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, p.Notify(Notification{Title: title}))
	}
	items := p.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "c", items[0].Title)
	assert.Equal(t, "b", items[1].Title)

	p.Open()
	assert.True(t, p.IsOpen())
	p.Close()
	assert.False(t, p.IsOpen())

	p.Clear()
	assert.Empty(t, p.Items())
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	var got []string
	ok := SinkFunc(func(n Notification) error {
		got = append(got, n.Title)
		return nil
	})
	bad := SinkFunc(func(n Notification) error { return errors.New("offline") })

	err := Multi{bad, nil, ok}.Notify(Notification{Title: "x"})
	assert.Error(t, err)
	assert.Equal(t, []string{"x"}, got)

	assert.NoError(t, Multi{ok}.Notify(Notification{Title: "y"}))
}

type fakeSender struct {
	channel string
	content string
	err     error
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.channel = channelID
	f.content = content
	if f.err != nil {
		return nil, f.err
	}
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func TestDiscord_Notify(t *testing.T) {
	sender := &fakeSender{}
	d := &Discord{session: sender, channelID: "123"}

	require.NoError(t, d.Notify(Notification{Title: "Pay rent", FiresAt: fired}))
	assert.Equal(t, "123", sender.channel)
	assert.True(t, strings.Contains(sender.content, "Pay rent"))

	sender.err = errors.New("403")
	assert.Error(t, d.Notify(Notification{Title: "Pay rent"}))
	assert.NoError(t, d.Close())
}

func TestNewDiscord_RequiresConfig(t *testing.T) {
	_, err := NewDiscord("", "123")
	assert.Error(t, err)
}
