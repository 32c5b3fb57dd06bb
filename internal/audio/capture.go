// CareBridge - Healthcare Speech Translation
//
// Package: audio
// Description: PCM capture buffers and in-memory WAV encoding
// License: MIT

package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	// DefaultSampleRate matches what the transcription models expect
	DefaultSampleRate = 16000

	// DefaultFramesPerBuffer is the capture chunk size
	DefaultFramesPerBuffer = 512
)

// Capture reads mono 16-bit PCM from a microphone
type Capture struct {
	mu          sync.RWMutex
	stream      *portaudio.Stream
	sampleRate  int
	bufferSize  int
	deviceName  string
	running     bool
	outputChan  chan []int16
	initialized bool
}

// CaptureConfig holds configuration for audio capture
type CaptureConfig struct {
	SampleRate int
	BufferSize int
	DeviceName string // empty means the system default input
}

// DefaultCaptureConfig returns default capture configuration
func DefaultCaptureConfig() CaptureConfig {
	return CaptureConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: DefaultFramesPerBuffer,
	}
}

// NewCapture creates a new audio capture instance
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing PortAudio: %w", err)
	}

	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultFramesPerBuffer
	}

	return &Capture{
		sampleRate:  cfg.SampleRate,
		bufferSize:  cfg.BufferSize,
		deviceName:  cfg.DeviceName,
		outputChan:  make(chan []int16, 100),
		initialized: true,
	}, nil
}

// Start begins audio capture
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return fmt.Errorf("capture already running")
	}

	buffer := make([]int16, c.bufferSize)

	var stream *portaudio.Stream
	var err error

	if c.deviceName != "" && c.deviceName != "default" {
		device, findErr := findInputDevice(c.deviceName)
		if findErr != nil {
			stream, err = portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.bufferSize, buffer)
		} else {
			params := portaudio.StreamParameters{
				Input: portaudio.StreamDeviceParameters{
					Device:   device,
					Channels: 1,
					Latency:  device.DefaultLowInputLatency,
				},
				SampleRate:      float64(c.sampleRate),
				FramesPerBuffer: c.bufferSize,
			}
			stream, err = portaudio.OpenStream(params, buffer)
		}
	} else {
		stream, err = portaudio.OpenDefaultStream(1, 0, float64(c.sampleRate), c.bufferSize, buffer)
	}
	if err != nil {
		return fmt.Errorf("opening audio stream: %w", err)
	}

	c.stream = stream

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("starting audio stream: %w", err)
	}

	c.running = true

	go c.captureLoop(ctx, buffer)

	return nil
}

// findInputDevice finds a PortAudio input device by name
func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.Name == name && dev.MaxInputChannels > 0 {
			return dev, nil
		}
	}
	return nil, fmt.Errorf("input device not found: %s", name)
}

// captureLoop continuously reads audio from the stream
func (c *Capture) captureLoop(ctx context.Context, buffer []int16) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.mu.RLock()
		if !c.running || c.stream == nil {
			c.mu.RUnlock()
			return
		}
		stream := c.stream
		c.mu.RUnlock()

		if err := stream.Read(); err != nil {
			c.mu.RLock()
			stillRunning := c.running
			c.mu.RUnlock()
			if !stillRunning {
				return
			}
			continue
		}

		samples := make([]int16, len(buffer))
		copy(samples, buffer)

		select {
		case c.outputChan <- samples:
		default:
			// Consumer fell behind, drop the chunk
		}
	}
}

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	c.running = false

	if c.stream != nil {
		c.stream.Stop()
		if err := c.stream.Close(); err != nil {
			return fmt.Errorf("closing audio stream: %w", err)
		}
		c.stream = nil
	}

	return nil
}

// Close stops capture and releases PortAudio
func (c *Capture) Close() error {
	if err := c.Stop(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("terminating PortAudio: %w", err)
		}
		c.initialized = false
	}

	close(c.outputChan)
	return nil
}

// Output returns the channel that receives audio chunks
func (c *Capture) Output() <-chan []int16 {
	return c.outputChan
}

// IsRunning returns whether capture is currently running
func (c *Capture) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

// SampleRate returns the sample rate
func (c *Capture) SampleRate() int {
	return c.sampleRate
}

// DeviceInfo describes an available input device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices returns the available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultName string
	if defaultInput != nil {
		defaultName = defaultInput.Name
	}

	var inputs []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputs = append(inputs, DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultName,
			})
		}
	}

	return inputs, nil
}
