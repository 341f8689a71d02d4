package client

import (
	"fmt"
	"sync"
)

// ClusterAlgorithm selects the vendor clustering implementation
type ClusterAlgorithm string

const (
	AlgorithmGrid         ClusterAlgorithm = "grid"
	AlgorithmKMeans       ClusterAlgorithm = "kmeans"
	AlgorithmSupercluster ClusterAlgorithm = "supercluster"
)

// ClusterConfig is pure configuration for the vendor marker clusterer.
// The clustering math itself runs in the vendor library.
type ClusterConfig struct {
	Enabled   bool             `json:"enabled"`
	Algorithm ClusterAlgorithm `json:"algorithm"`
	GridSize  int              `json:"grid_size"`
	MinZoom   int              `json:"min_zoom"`
	MaxZoom   int              `json:"max_zoom"`
}

// DefaultClusterConfig matches the vendor defaults
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		Enabled:   true,
		Algorithm: AlgorithmSupercluster,
		GridSize:  60,
		MinZoom:   3,
		MaxZoom:   17,
	}
}

// Validate checks the configuration before it is handed to the vendor SDK
func (c ClusterConfig) Validate() error {
	switch c.Algorithm {
	case AlgorithmGrid, AlgorithmKMeans, AlgorithmSupercluster:
	default:
		return fmt.Errorf("unknown clustering algorithm: %q", c.Algorithm)
	}
	if c.GridSize <= 0 {
		return fmt.Errorf("grid size must be positive, got %d", c.GridSize)
	}
	if c.MinZoom < 0 || c.MaxZoom < c.MinZoom {
		return fmt.Errorf("invalid zoom bounds: min %d, max %d", c.MinZoom, c.MaxZoom)
	}
	return nil
}

// ClusterController holds the live clustering configuration
type ClusterController struct {
	mu     sync.Mutex
	config ClusterConfig
}

// NewClusterController starts from the default configuration
func NewClusterController() *ClusterController {
	return &ClusterController{config: DefaultClusterConfig()}
}

// Config returns the current configuration
func (c *ClusterController) Config() ClusterConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// SetEnabled toggles clustering on or off
func (c *ClusterController) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Enabled = enabled
}

// SetAlgorithm switches the clustering algorithm
func (c *ClusterController) SetAlgorithm(algorithm ClusterAlgorithm) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.config
	next.Algorithm = algorithm
	if err := next.Validate(); err != nil {
		return err
	}
	c.config = next
	return nil
}

// SetGridSize adjusts the grid cell size
func (c *ClusterController) SetGridSize(size int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.config
	next.GridSize = size
	if err := next.Validate(); err != nil {
		return err
	}
	c.config = next
	return nil
}

// SetZoomBounds adjusts the zoom window in which clustering applies
func (c *ClusterController) SetZoomBounds(minZoom, maxZoom int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.config
	next.MinZoom = minZoom
	next.MaxZoom = maxZoom
	if err := next.Validate(); err != nil {
		return err
	}
	c.config = next
	return nil
}
