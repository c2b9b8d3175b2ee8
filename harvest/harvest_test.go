package harvest_test

import (
	"context"
	"image"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/rulekit"
	"github.com/fwojciec/rulekit/harvest"
	"github.com/fwojciec/rulekit/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() *rulekit.GameProfile {
	return &rulekit.GameProfile{
		Version:        "test",
		SectionHeaders: map[string][]string{"en": {"components", "contents"}},
		Labels:         []rulekit.CanonicalLabel{{Name: "Cards"}},
		ExcludeImage:   []string{"logo", "icon", "avatar"},
		MinDimension:   200,
		Formats:        []string{"jpg", "png", "webp"},
		ProviderWeights: map[string]float64{
			"publisher": 1.0,
			"bgg":       0.9,
		},
		DefaultProviderWeight: 0.5,
		Weights: rulekit.ScoreWeights{
			Provider:      0.25,
			Proximity:     0.25,
			Size:          0.3,
			Quality:       0.2,
			FormatBonus:   0.05,
			AspectPenalty: 0.2,
			MaxAspect:     3,
		},
		Bands:             rulekit.BandThresholds{High: 0.75, Medium: 0.5},
		DedupeMaxDistance: 10,
		FallbackDensity:   0.25,
	}
}

func testDocument() rulekit.FetchedDocument {
	return rulekit.FetchedDocument{
		SourceURL: "https://publisher.example/game",
		Provider:  "publisher",
		HTML:      "<html></html>",
	}
}

func descriptorsOf(descs ...rulekit.ImageDescriptor) *mock.Describer {
	return &mock.Describer{
		DescribeFn: func(doc *rulekit.FetchedDocument, profile *rulekit.GameProfile) ([]rulekit.ImageDescriptor, error) {
			return descs, nil
		},
	}
}

func TestHarvestValidation(t *testing.T) {
	t.Parallel()

	t.Run("requires a profile", func(t *testing.T) {
		t.Parallel()
		e := &harvest.Engine{Describer: descriptorsOf()}
		_, err := e.Harvest(context.Background(), nil)
		require.Error(t, err)
		assert.Equal(t, rulekit.ECONFIG, rulekit.ErrorCode(err))
	})

	t.Run("rejects an invalid profile", func(t *testing.T) {
		t.Parallel()
		profile := testProfile()
		profile.Labels = nil
		e := &harvest.Engine{Profile: profile, Describer: descriptorsOf()}
		_, err := e.Harvest(context.Background(), nil)
		require.Error(t, err)
		assert.Equal(t, rulekit.ECONFIG, rulekit.ErrorCode(err))
	})

	t.Run("requires a describer", func(t *testing.T) {
		t.Parallel()
		e := &harvest.Engine{Profile: testProfile()}
		_, err := e.Harvest(context.Background(), nil)
		require.Error(t, err)
		assert.Equal(t, rulekit.EINVALID, rulekit.ErrorCode(err))
	})
}

func TestHarvestMerge(t *testing.T) {
	t.Parallel()

	t.Run("merges URLs differing only by tracking parameters", func(t *testing.T) {
		t.Parallel()
		audit := &mock.AuditSink{}
		e := &harvest.Engine{
			Profile: testProfile(),
			Audit:   audit,
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/board.png", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/board.png?utm_source=newsletter", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 1)
		assert.Equal(t, "https://cdn.example.com/board.png", res.Images[0].CanonicalURL)
		assert.Len(t, audit.ByReason("duplicate_canonical_url"), 1)
	})

	t.Run("never loads a merged duplicate", func(t *testing.T) {
		t.Parallel()
		var loads int32
		e := &harvest.Engine{
			Profile: testProfile(),
			Source: &mock.ImageSource{
				LoadFn: func(ctx context.Context, url string) (image.Image, error) {
					atomic.AddInt32(&loads, 1)
					return image.NewGray(image.Rect(0, 0, 8, 8)), nil
				},
			},
			Hasher: &mock.Hasher{
				HashFn: func(img image.Image) rulekit.PerceptualHash {
					return 0xF0F0F0F0F0F0F0F0
				},
			},
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/board.png", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/board.png?utm_source=newsletter", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 1)
		assert.Equal(t, int32(1), atomic.LoadInt32(&loads))
	})

	t.Run("keeps the better scored duplicate", func(t *testing.T) {
		t.Parallel()
		e := &harvest.Engine{
			Profile: testProfile(),
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/board.png?cb=1", Width: 300, Height: 300,
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/board.png?cb=2", Width: 1200, Height: 900,
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 1)
		assert.Equal(t, 1200, res.Images[0].Width)
	})
}

func TestHarvestFilter(t *testing.T) {
	t.Parallel()

	audit := &mock.AuditSink{}
	e := &harvest.Engine{
		Profile: testProfile(),
		Audit:   audit,
		Describer: descriptorsOf(
			rulekit.ImageDescriptor{URL: "https://cdn.example.com/favicon.png", Width: 64, Height: 64, Provider: "publisher"},
			rulekit.ImageDescriptor{URL: "https://cdn.example.com/artwork.svg", Width: 800, Height: 600, Provider: "publisher"},
			rulekit.ImageDescriptor{URL: "https://cdn.example.com/logo.png", Width: 800, Height: 600, Provider: "publisher"},
			rulekit.ImageDescriptor{URL: ":not-a-url", Provider: "publisher"},
			rulekit.ImageDescriptor{URL: "https://cdn.example.com/box-contents.jpg", Width: 800, Height: 600, Provider: "publisher", SectionDistance: 0},
		),
	}

	res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
	require.NoError(t, err)

	require.Len(t, res.Images, 1)
	assert.Equal(t, "https://cdn.example.com/box-contents.jpg", res.Images[0].CanonicalURL)

	assert.Len(t, audit.ByReason("below_min_dimension"), 1)
	assert.Len(t, audit.ByReason("disallowed_format"), 1)
	assert.Len(t, audit.ByReason("excluded_keyword"), 1)
	assert.Len(t, audit.ByReason("bad_url"), 1)
}

func TestHarvestScoring(t *testing.T) {
	t.Parallel()

	t.Run("ranks images by final score", func(t *testing.T) {
		t.Parallel()
		e := &harvest.Engine{
			Profile: testProfile(),
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/small.jpg", Width: 400, Height: 400,
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/big.jpg", Width: 1600, Height: 1600,
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 2)
		assert.Equal(t, "https://cdn.example.com/big.jpg", res.Images[0].CanonicalURL)
		assert.GreaterOrEqual(t, res.Images[0].FinalScore, res.Images[1].FinalScore)
		assert.Greater(t, res.Images[0].SizeScore, res.Images[1].SizeScore)
	})

	t.Run("weights trusted providers above unknown ones", func(t *testing.T) {
		t.Parallel()
		docs := []rulekit.FetchedDocument{
			{SourceURL: "https://publisher.example/game", Provider: "publisher", HTML: "<html></html>"},
			{SourceURL: "https://random.example/game", Provider: "randomblog", HTML: "<html></html>"},
		}
		e := &harvest.Engine{
			Profile: testProfile(),
			Describer: &mock.Describer{
				DescribeFn: func(doc *rulekit.FetchedDocument, profile *rulekit.GameProfile) ([]rulekit.ImageDescriptor, error) {
					return []rulekit.ImageDescriptor{{
						URL:             "https://" + doc.Provider + ".example/board.jpg",
						Width:           800,
						Height:          600,
						Provider:        doc.Provider,
						SectionDistance: 0,
					}}, nil
				},
			},
		}

		res, err := e.Harvest(context.Background(), docs)
		require.NoError(t, err)
		require.Len(t, res.Images, 2)
		assert.Equal(t, "publisher", res.Images[0].Provider)
		assert.Greater(t, res.Images[0].FinalScore, res.Images[1].FinalScore)
	})

	t.Run("penalizes extreme aspect ratios", func(t *testing.T) {
		t.Parallel()
		e := &harvest.Engine{
			Profile: testProfile(),
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/square.jpg", Width: 700, Height: 700,
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/banner.jpg", Width: 2450, Height: 200,
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 2)
		assert.Equal(t, "https://cdn.example.com/square.jpg", res.Images[0].CanonicalURL)
	})

	t.Run("assigns confidence bands from thresholds", func(t *testing.T) {
		t.Parallel()
		e := &harvest.Engine{
			Profile: testProfile(),
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/components-full.png", Width: 1600, Height: 1200,
					Alt: "all game components", Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://blog.example/far-thumb.jpg",
					Provider: "randomblog", SectionDistance: -1, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 2)
		assert.Equal(t, rulekit.BandHigh, res.Images[0].ConfidenceBand)
		assert.Equal(t, rulekit.BandLow, res.Images[1].ConfidenceBand)
		assert.Greater(t, res.Images[0].ConfidenceBand.Rank(), res.Images[1].ConfidenceBand.Rank())
	})
}

func TestHarvestClustering(t *testing.T) {
	t.Parallel()

	// Distinct bounds let the mock hasher tell the loaded images apart.
	sizedSource := func(sizes map[string]int) *mock.ImageSource {
		return &mock.ImageSource{
			LoadFn: func(ctx context.Context, url string) (image.Image, error) {
				return image.NewGray(image.Rect(0, 0, sizes[url], 1)), nil
			},
		}
	}
	boundsHasher := func(hashes map[int]rulekit.PerceptualHash) *mock.Hasher {
		return &mock.Hasher{
			HashFn: func(img image.Image) rulekit.PerceptualHash {
				return hashes[img.Bounds().Dx()]
			},
		}
	}

	t.Run("groups near duplicates and picks the best representative", func(t *testing.T) {
		t.Parallel()
		const (
			fullURL  = "https://cdn.example.com/components-full.png"
			thumbURL = "https://mirror.example.org/components-thumb.png"
			otherURL = "https://cdn.example.com/box.png"
		)
		e := &harvest.Engine{
			Profile: testProfile(),
			Source: sizedSource(map[string]int{
				fullURL:  1,
				thumbURL: 2,
				otherURL: 3,
			}),
			Hasher: boundsHasher(map[int]rulekit.PerceptualHash{
				1: 0xF0F0F0F0F0F0F0F0,
				2: 0xF0F0F0F0F0F0F0F3, // distance 2 from the full image
				3: 0x0F0F0F0F0F0F0F0F, // distance 64 from the full image
			}),
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: fullURL, Width: 1200, Height: 900, Alt: "game components",
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: thumbURL, Width: 300, Height: 225, Alt: "game components",
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
				rulekit.ImageDescriptor{
					URL: otherURL, Width: 800, Height: 800, Alt: "box",
					Provider: "publisher", SectionDistance: 0, Position: 2,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 3)
		require.Len(t, res.Clusters, 2)

		var dupes, single *rulekit.DedupeCluster
		for i := range res.Clusters {
			if len(res.Clusters[i].Members) == 2 {
				dupes = &res.Clusters[i]
			} else {
				single = &res.Clusters[i]
			}
		}
		require.NotNil(t, dupes)
		require.NotNil(t, single)

		assert.Equal(t, fullURL, dupes.Representative.CanonicalURL)
		assert.Equal(t, 2, dupes.MaxPairwiseDistance)
		assert.Equal(t, otherURL, single.Representative.CanonicalURL)
		assert.Equal(t, 0, single.MaxPairwiseDistance)
	})

	t.Run("unhashable candidates form singleton clusters", func(t *testing.T) {
		t.Parallel()
		audit := &mock.AuditSink{}
		e := &harvest.Engine{
			Profile: testProfile(),
			Audit:   audit,
			Source: &mock.ImageSource{
				LoadFn: func(ctx context.Context, url string) (image.Image, error) {
					return nil, rulekit.Errorf(rulekit.EUNAVAILABLE, "load %s: connection refused", url)
				},
			},
			Hasher: boundsHasher(nil),
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/a.png", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0,
				},
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/b.png", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0, Position: 1,
				},
			),
		}

		res, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		require.Len(t, res.Images, 2)
		assert.Len(t, res.Clusters, 2)
		for _, c := range res.Clusters {
			assert.Len(t, c.Members, 1)
		}
		assert.Len(t, audit.ByReason("hash_compute_failure"), 2)
	})

	t.Run("waits on the host limiter before loading", func(t *testing.T) {
		t.Parallel()
		var hosts []string
		e := &harvest.Engine{
			Profile:     testProfile(),
			Concurrency: 1,
			Source: sizedSource(map[string]int{
				"https://cdn.example.com/a.png": 1,
			}),
			Hasher: boundsHasher(map[int]rulekit.PerceptualHash{1: 0xF0F0F0F0F0F0F0F0}),
			Limiter: &mock.HostLimiter{
				WaitFn: func(ctx context.Context, host string) error {
					hosts = append(hosts, host)
					return nil
				},
			},
			Describer: descriptorsOf(
				rulekit.ImageDescriptor{
					URL: "https://cdn.example.com/a.png", Width: 800, Height: 600,
					Provider: "publisher", SectionDistance: 0,
				},
			),
		}

		_, err := e.Harvest(context.Background(), []rulekit.FetchedDocument{testDocument()})
		require.NoError(t, err)
		assert.Equal(t, []string{"cdn.example.com"}, hosts)
	})
}

func TestHarvestSourceFailures(t *testing.T) {
	t.Parallel()

	t.Run("an unreadable source never aborts the others", func(t *testing.T) {
		t.Parallel()
		docs := []rulekit.FetchedDocument{
			{SourceURL: "https://good.example/game", Provider: "publisher", HTML: "<html></html>"},
			{SourceURL: "https://bad.example/game", Provider: "bgg", HTML: "<html></html>"},
			{SourceURL: "https://empty.example/game", Provider: "wiki"},
		}
		e := &harvest.Engine{
			Profile: testProfile(),
			Describer: &mock.Describer{
				DescribeFn: func(doc *rulekit.FetchedDocument, profile *rulekit.GameProfile) ([]rulekit.ImageDescriptor, error) {
					if doc.SourceURL == "https://bad.example/game" {
						return nil, rulekit.Errorf(rulekit.EINTERNAL, "parse failed")
					}
					return []rulekit.ImageDescriptor{{
						URL: "https://good.example/board.jpg", Width: 800, Height: 600,
						Provider: doc.Provider, SectionDistance: 0,
					}}, nil
				},
			},
		}

		res, err := e.Harvest(context.Background(), docs)
		require.NoError(t, err)
		require.Len(t, res.Images, 1)
		require.Len(t, res.Skipped, 2)

		skipped := map[string]bool{}
		for _, s := range res.Skipped {
			skipped[s.SourceURL] = true
			assert.NotEmpty(t, s.Reason)
		}
		assert.True(t, skipped["https://bad.example/game"])
		assert.True(t, skipped["https://empty.example/game"])
	})

	t.Run("cancellation returns partial results", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		docs := []rulekit.FetchedDocument{testDocument(), testDocument()}
		e := &harvest.Engine{
			Profile:   testProfile(),
			Describer: descriptorsOf(),
		}

		res, err := e.Harvest(ctx, docs)
		require.NoError(t, err)
		assert.Empty(t, res.Images)
		require.Len(t, res.Skipped, len(docs))
		for _, s := range res.Skipped {
			assert.Equal(t, "canceled", s.Reason)
		}
	})
}
