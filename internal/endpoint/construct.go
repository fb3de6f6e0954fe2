package endpoint

import (
	"fmt"

	"github.com/ndd-io/ndd/internal/constants"
	"github.com/ndd-io/ndd/internal/interfaces"
)

// Sources holds the raw CLI-supplied endpoint specs, one field per
// flag/role. Exactly one of the producer fields and between one and
// constants.MaxConsumers of the consumer fields must be set;
// BuildProducer and BuildConsumers enforce this.
type Sources struct {
	FileIn, FileOut     string
	PipeIn, PipeOut     string
	SocketIn, SocketOut string
}

// BuildProducer constructs the single producer named by s. An
// unconstructed producer is represented the ordinary Go way, as a nil
// interfaces.Producer; there is no separate vtable/state split to keep
// empty.
func BuildProducer(s Sources) (interfaces.Producer, error) {
	var p interfaces.Producer
	count := 0
	if s.FileIn != "" {
		p = NewFileProducer(s.FileIn)
		count++
	}
	if s.PipeIn != "" {
		p = NewPipeProducer(s.PipeIn)
		count++
	}
	if s.SocketIn != "" {
		p = NewSocketProducer(s.SocketIn)
		count++
	}
	if count != 1 {
		return nil, fmt.Errorf("endpoint: exactly one producer required, got %d", count)
	}
	return p, nil
}

// BuildConsumers constructs every consumer named by s, in the fixed
// order file, pipe, socket — that order becomes each consumer's
// construction-order index for statistics and fairness.
func BuildConsumers(s Sources) ([]interfaces.Consumer, error) {
	var consumers []interfaces.Consumer
	if s.FileOut != "" {
		consumers = append(consumers, NewFileConsumer(s.FileOut))
	}
	if s.PipeOut != "" {
		consumers = append(consumers, NewPipeConsumer(s.PipeOut))
	}
	if s.SocketOut != "" {
		consumers = append(consumers, NewSocketConsumer(s.SocketOut))
	}
	if len(consumers) < 1 || len(consumers) > constants.MaxConsumers {
		return nil, fmt.Errorf("endpoint: need 1..%d consumers, got %d", constants.MaxConsumers, len(consumers))
	}
	return consumers, nil
}
