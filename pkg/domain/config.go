package domain

import "maps"

// ScanConfig is the immutable per-unit configuration handed to scanner
// adapters. Construct it with a ScanConfigBuilder.
type ScanConfig struct {
	taskID     TaskID
	depth      int
	credential Credential
	labels     map[string]string
}

// TaskID returns the id of the task the unit belongs to.
func (c ScanConfig) TaskID() TaskID { return c.taskID }

// Depth returns the requested scanning depth.
func (c ScanConfig) Depth() int { return c.depth }

// Credential returns the task credential, or nil.
func (c ScanConfig) Credential() Credential { return c.credential }

// Label returns the scheduling label stored under key.
func (c ScanConfig) Label(key string) (string, bool) {
	v, ok := c.labels[key]

	return v, ok
}

// Labels returns a copy of all scheduling labels.
func (c ScanConfig) Labels() map[string]string {
	return maps.Clone(c.labels)
}

// ScanConfigBuilder assembles a ScanConfig. The builder may be discarded
// after Build; the built value never changes.
type ScanConfigBuilder struct {
	taskID     TaskID
	depth      int
	credential Credential
	labels     map[string]string
}

// NewScanConfigBuilder returns an empty builder.
func NewScanConfigBuilder() *ScanConfigBuilder {
	return &ScanConfigBuilder{labels: map[string]string{}}
}

func (b *ScanConfigBuilder) TaskID(id TaskID) *ScanConfigBuilder {
	b.taskID = id

	return b
}

func (b *ScanConfigBuilder) Depth(depth int) *ScanConfigBuilder {
	b.depth = depth

	return b
}

func (b *ScanConfigBuilder) Credential(c Credential) *ScanConfigBuilder {
	b.credential = c

	return b
}

func (b *ScanConfigBuilder) Label(key, value string) *ScanConfigBuilder {
	b.labels[key] = value

	return b
}

// Build returns the configured ScanConfig.
func (b *ScanConfigBuilder) Build() ScanConfig {
	return ScanConfig{
		taskID:     b.taskID,
		depth:      b.depth,
		credential: b.credential,
		labels:     maps.Clone(b.labels),
	}
}

// ScanConfigFor builds the configuration shared by every unit of task.
func ScanConfigFor(task *ScanTask) ScanConfig {
	b := NewScanConfigBuilder().
		TaskID(task.ID).
		Depth(task.ScanningDepth).
		Credential(task.Credential)
	if task.Scheduling != nil {
		for k, v := range task.Scheduling.Labels {
			b.Label(k, v)
		}
	}

	return b.Build()
}
