package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/yt-backup-go/internal/domain"
)

func TestProgressPrinter(t *testing.T) {
	var out bytes.Buffer
	p := newProgressPrinter(&out)
	key := "https://www.youtube.com/channel/UC123"

	p.Publish(domain.StartedEvent(key))
	p.Publish(domain.ItemFailedEvent(key, "https://www.youtube.com/watch?v=b", errors.New("all tiers failed")))
	p.Publish(domain.ProgressEvent(key, 2, 5))
	p.Publish(domain.FinishedEvent(key))

	assert.Equal(t,
		"FAILED https://www.youtube.com/watch?v=b: all tiers failed\n[2/5] done\nFinished\n",
		out.String())
}
