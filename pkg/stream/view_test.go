package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/parlorchat/parlor/pkg/chat"
)

func ts(t time.Time) *time.Time { return &t }

func TestViewAppendPreservesArrivalOrder(t *testing.T) {
	v := NewView()
	require.True(t, v.Append(chat.Event{Sender: "alice", Text: "one"}))
	require.True(t, v.Append(chat.Event{Sender: "bob", Text: "two"}))
	require.True(t, v.Append(chat.Event{Sender: "alice", Text: "three"}))

	got := v.Snapshot()
	require.Len(t, got, 3)
	require.Equal(t, "one", got[0].Text)
	require.Equal(t, "two", got[1].Text)
	require.Equal(t, "three", got[2].Text)
}

func TestViewDropsImmediateRepeats(t *testing.T) {
	v := NewView()
	require.True(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.False(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.Equal(t, 1, v.Len())

	// different sender, same text: not a duplicate
	require.True(t, v.Append(chat.Event{Sender: "bob", Text: "hi"}))
	require.Equal(t, 2, v.Len())
}

func TestViewDedupIgnoresTimestamp(t *testing.T) {
	v := NewView()
	require.True(t, v.Append(chat.Event{Sender: "alice", Text: "hi", Timestamp: ts(time.Now())}))
	require.False(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.False(t, v.Append(chat.Event{Sender: "alice", Text: "hi", Timestamp: ts(time.Now().Add(time.Hour))}))
	require.Equal(t, 1, v.Len())
}

func TestViewBurstOfThreeIdenticalDropsOnlySecond(t *testing.T) {
	// only immediate repeats are dropped: the third identical event
	// compares against the (deduplicated) first and is dropped too,
	// since the first is still the last entry
	v := NewView()
	require.True(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.False(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.False(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.Equal(t, 1, v.Len())

	// an interleaved different message resets the comparison point
	require.True(t, v.Append(chat.Event{Sender: "bob", Text: "yo"}))
	require.True(t, v.Append(chat.Event{Sender: "alice", Text: "hi"}))
	require.Equal(t, 3, v.Len())
}

func TestViewReplaceSwapsWholesale(t *testing.T) {
	v := NewView()
	require.True(t, v.Append(chat.Event{Sender: "early", Text: "live event"}))

	history := []chat.Event{
		{Sender: "alice", Text: "old one"},
		{Sender: "bob", Text: "old two"},
	}
	v.Replace(history)

	got := v.Snapshot()
	require.Len(t, got, 2)
	require.Equal(t, "old one", got[0].Text)

	// snapshot is a copy; mutating it does not touch the view
	got[0].Text = "mutated"
	require.Equal(t, "old one", v.Snapshot()[0].Text)
}

func TestViewNonDuplicateCountProperty(t *testing.T) {
	// view length always equals the number of non-duplicate arrivals
	inbound := []chat.Event{
		{Sender: "a", Text: "1"},
		{Sender: "a", Text: "1"},
		{Sender: "a", Text: "2"},
		{Sender: "b", Text: "2"},
		{Sender: "b", Text: "2"},
		{Sender: "b", Text: "2"},
		{Sender: "a", Text: "1"},
	}
	v := NewView()
	appended := 0
	for _, ev := range inbound {
		if v.Append(ev) {
			appended++
		}
	}
	require.Equal(t, appended, v.Len())
	require.Equal(t, 4, v.Len())
}
