package reminder

import (
	"errors"
	"fmt"
	"math"
)

// Kind partitions notification keys so that different surfaces for the same
// task never share an identifier.
type Kind int

const (
	KindAlarm Kind = iota + 1
	KindReminder
	KindFullScreen
)

// KeyStride is the width of the numeric block reserved for each task id. Every
// kind offset lies strictly inside one block.
const KeyStride int64 = 1000

// MaxKeyTaskID is the largest task id whose keys can be encoded without
// overflowing int64.
const MaxKeyTaskID = (math.MaxInt64 - (KeyStride - 1)) / KeyStride

var ErrKeyOutOfRange = errors.New("reminder: notification key out of range")

func (k Kind) Offset() int64 {
	switch k {
	case KindAlarm:
		return 100
	case KindReminder:
		return 200
	case KindFullScreen:
		return 400
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case KindAlarm:
		return "alarm"
	case KindReminder:
		return "reminder"
	case KindFullScreen:
		return "fullscreen"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) valid() bool {
	return k >= KindAlarm && k <= KindFullScreen
}

type Key struct {
	Kind   Kind
	TaskID int64
}

func AlarmKey(taskID int64) Key      { return Key{Kind: KindAlarm, TaskID: taskID} }
func ReminderKey(taskID int64) Key   { return Key{Kind: KindReminder, TaskID: taskID} }
func FullScreenKey(taskID int64) Key { return Key{Kind: KindFullScreen, TaskID: taskID} }

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Kind, k.TaskID)
}

// Encode maps the key onto a single int64: TaskID*KeyStride + Kind.Offset().
func (k Key) Encode() (int64, error) {
	if !k.Kind.valid() || k.TaskID < 0 || k.TaskID > MaxKeyTaskID {
		return 0, fmt.Errorf("%w: %s", ErrKeyOutOfRange, k)
	}
	return k.TaskID*KeyStride + k.Kind.Offset(), nil
}

func DecodeKey(n int64) (Key, error) {
	if n < 0 {
		return Key{}, fmt.Errorf("%w: %d", ErrKeyOutOfRange, n)
	}
	offset := n % KeyStride
	for kind := KindAlarm; kind <= KindFullScreen; kind++ {
		if kind.Offset() == offset {
			return Key{Kind: kind, TaskID: n / KeyStride}, nil
		}
	}
	return Key{}, fmt.Errorf("%w: %d", ErrKeyOutOfRange, n)
}
