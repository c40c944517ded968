package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTopic(t *testing.T) {
	assert.Equal(t, "changes:order:o-42", OrderTopic("o-42"))
}

func TestNopPublish(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), Event{Topic: OrderTopic("x")}))
}
