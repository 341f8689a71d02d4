package client

import "testing"

func TestDefaultClusterConfigIsValid(t *testing.T) {
	if err := DefaultClusterConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestClusterConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClusterConfig)
		wantErr bool
	}{
		{"valid grid", func(c *ClusterConfig) { c.Algorithm = AlgorithmGrid }, false},
		{"valid kmeans", func(c *ClusterConfig) { c.Algorithm = AlgorithmKMeans }, false},
		{"unknown algorithm", func(c *ClusterConfig) { c.Algorithm = "voronoi" }, true},
		{"zero grid size", func(c *ClusterConfig) { c.GridSize = 0 }, true},
		{"negative grid size", func(c *ClusterConfig) { c.GridSize = -10 }, true},
		{"negative min zoom", func(c *ClusterConfig) { c.MinZoom = -1 }, true},
		{"max below min", func(c *ClusterConfig) { c.MinZoom = 10; c.MaxZoom = 5 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultClusterConfig()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClusterControllerRejectsInvalidChanges(t *testing.T) {
	c := NewClusterController()
	before := c.Config()

	if err := c.SetAlgorithm("voronoi"); err == nil {
		t.Error("unknown algorithm accepted")
	}
	if err := c.SetGridSize(0); err == nil {
		t.Error("zero grid size accepted")
	}
	if err := c.SetZoomBounds(10, 5); err == nil {
		t.Error("inverted zoom bounds accepted")
	}

	if c.Config() != before {
		t.Errorf("config changed by rejected updates: %+v", c.Config())
	}
}

func TestClusterControllerAppliesValidChanges(t *testing.T) {
	c := NewClusterController()

	if err := c.SetAlgorithm(AlgorithmGrid); err != nil {
		t.Fatalf("SetAlgorithm returned error: %v", err)
	}
	if err := c.SetGridSize(100); err != nil {
		t.Fatalf("SetGridSize returned error: %v", err)
	}
	if err := c.SetZoomBounds(5, 15); err != nil {
		t.Fatalf("SetZoomBounds returned error: %v", err)
	}
	c.SetEnabled(false)

	got := c.Config()
	if got.Algorithm != AlgorithmGrid || got.GridSize != 100 || got.MinZoom != 5 || got.MaxZoom != 15 || got.Enabled {
		t.Errorf("config = %+v", got)
	}
}
