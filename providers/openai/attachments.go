package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	llmstream "github.com/voralis/llmstream-go"
)

// ContainerFile is the payload of a downloaded container file.
// Filename and MimeType are optional hints; missing values are derived
// from the file id and sniffed from the bytes.
type ContainerFile struct {
	Bytes    []byte
	Filename string
	MimeType string
}

// ContainerFileFetcher downloads files referenced by container-file
// citations. The provider installs a default implementation backed by the
// containers content endpoint; tests and embedders may inject their own.
type ContainerFileFetcher interface {
	FetchContainerFile(ctx context.Context, containerID, fileID string) (*ContainerFile, error)
}

type containerCitation struct {
	containerID string
	fileID      string
}

// attachmentCollector gathers binary artifacts noticed during a stream:
// progressive image fragments (latest wins) and container-file citations
// (deduplicated, downloaded exactly once at finalization).
type attachmentCollector struct {
	partialImageB64   string
	partialImageIndex int64
	imageCompleted    bool

	citations []containerCitation
	seen      map[containerCitation]struct{}
}

func newAttachmentCollector() *attachmentCollector {
	return &attachmentCollector{
		seen: make(map[containerCitation]struct{}),
	}
}

// recordPartialImage replaces any previously held image fragment.
func (c *attachmentCollector) recordPartialImage(b64 string, index int64) {
	if b64 == "" {
		return
	}
	c.partialImageB64 = b64
	c.partialImageIndex = index
}

// completeImage marks image generation finished. A non-empty result is
// authoritative and overrides the last partial fragment.
func (c *attachmentCollector) completeImage(resultB64 string) {
	c.imageCompleted = true
	if resultB64 != "" {
		c.partialImageB64 = resultB64
	}
}

// addCitation registers a container-file citation, ignoring duplicates.
func (c *attachmentCollector) addCitation(containerID, fileID string) {
	if containerID == "" || fileID == "" {
		return
	}
	key := containerCitation{containerID: containerID, fileID: fileID}
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.citations = append(c.citations, key)
}

// resolve converts everything collected into data parts, downloading each
// distinct citation once through the fetcher. Registered citations are
// consumed; calling resolve twice downloads nothing the second time.
func (c *attachmentCollector) resolve(ctx context.Context, fetcher ContainerFileFetcher) ([]*llmstream.Part, error) {
	var parts []*llmstream.Part

	if c.imageCompleted && c.partialImageB64 != "" {
		data, err := base64.StdEncoding.DecodeString(c.partialImageB64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode generated image: %w", err)
		}
		mt := mimetype.Detect(data)
		name := fmt.Sprintf("image_%d%s", c.partialImageIndex, mt.Extension())
		parts = append(parts, llmstream.NewDataPart(data, mt.String(), name))
		c.imageCompleted = false
		c.partialImageB64 = ""
	}

	pending := c.citations
	c.citations = nil
	for _, cit := range pending {
		if fetcher == nil {
			return nil, fmt.Errorf("container file %s/%s cited but no fetcher configured", cit.containerID, cit.fileID)
		}
		f, err := fetcher.FetchContainerFile(ctx, cit.containerID, cit.fileID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch container file %s/%s: %w", cit.containerID, cit.fileID, err)
		}

		mime := f.MimeType
		if mime == "" {
			mime = mimetype.Detect(f.Bytes).String()
		}
		name := f.Filename
		if name == "" {
			name = cit.fileID
		}
		parts = append(parts, llmstream.NewDataPart(f.Bytes, mime, name))
	}

	return parts, nil
}
