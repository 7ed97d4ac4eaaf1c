package commands

import (
	"context"
	"fmt"
	"io/fs"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tyemirov/projtree/internal/tokenizer"
	"github.com/tyemirov/projtree/internal/types"
	"github.com/tyemirov/projtree/internal/utils"
)

const warningTokenCountFormat = "Warning: unable to count tokens for %s: %v"

type annotationTarget struct {
	node         *types.TreeOutputNode
	relativePath string
}

// AnnotateTokens fills the token count of every file below root, reading files from fileSystem by their
// slash-separated path relative to root. Binary files are retyped and left uncounted. At most workerLimit
// files are read at once; a non-positive limit uses GOMAXPROCS. Unreadable files are reported through warn.
// The returned error is non-nil only when ctx is cancelled.
func AnnotateTokens(ctx context.Context, root *types.TreeOutputNode, fileSystem fs.FS, counter tokenizer.Counter, workerLimit int, warn func(message string)) error {
	if root == nil || counter == nil {
		return nil
	}
	if workerLimit <= 0 {
		workerLimit = runtime.GOMAXPROCS(0)
	}

	targets := collectAnnotationTargets(nil, root.Children, ".")

	group, groupContext := errgroup.WithContext(ctx)
	group.SetLimit(workerLimit)
	for _, target := range targets {
		if groupContext.Err() != nil {
			break
		}
		target := target
		group.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			if utils.IsFileBinary(fileSystem, target.relativePath) {
				target.node.Type = types.NodeTypeBinary
				return nil
			}
			result, countError := tokenizer.CountFile(counter, fileSystem, target.relativePath)
			if countError != nil {
				if warn != nil {
					warn(fmt.Sprintf(warningTokenCountFormat, target.node.Path, countError))
				}
				return nil
			}
			if !result.Counted {
				target.node.Type = types.NodeTypeBinary
				return nil
			}
			target.node.Tokens = result.Tokens
			return nil
		})
	}
	if waitError := group.Wait(); waitError != nil {
		return waitError
	}
	return ctx.Err()
}

func collectAnnotationTargets(targets []annotationTarget, nodes []*types.TreeOutputNode, relativeDirectory string) []annotationTarget {
	for _, node := range nodes {
		relativePath := utils.JoinRelative(relativeDirectory, node.Name)
		if node.IsDirectory() {
			targets = collectAnnotationTargets(targets, node.Children, relativePath)
			continue
		}
		targets = append(targets, annotationTarget{node: node, relativePath: relativePath})
	}
	return targets
}
