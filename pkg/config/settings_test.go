package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSettingsReplace(t *testing.T) {
	s := NewSystemSettings(nil)
	require.NotNil(t, s.Current())
	assert.Equal(t, DefaultSystemConfig().MemoryWindow, s.Current().MemoryWindow)

	fresh := DefaultSystemConfig()
	fresh.MemoryWindow = 7
	fresh.QuizQuestionLimit = 3
	s.Replace(fresh)

	assert.Equal(t, 7, s.Current().MemoryWindow)
	assert.Equal(t, 3, s.Current().QuizQuestionLimit)

	// nil replace keeps the last snapshot
	s.Replace(nil)
	assert.Equal(t, 7, s.Current().MemoryWindow)
}

func TestSystemSettingsConcurrentSwap(t *testing.T) {
	s := NewSystemSettings(DefaultSystemConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				fresh := DefaultSystemConfig()
				fresh.MemoryWindow = j
				s.Replace(fresh)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := s.Current()
				// a snapshot is always internally consistent
				assert.Equal(t, DefaultSystemConfig().MemoryMaxChars, cfg.MemoryMaxChars)
			}
		}()
	}
	wg.Wait()
}
