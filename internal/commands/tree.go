// Package commands contains the tree building and rendering logic.
package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tyemirov/projtree/internal/types"
	"github.com/tyemirov/projtree/internal/utils"
)

const (
	// warningSkipSubdirFormat is used when a subdirectory cannot be processed.
	warningSkipSubdirFormat = "Warning: Skipping subdirectory %s due to error: %v"
	// warningStatPathFormat is used when file information cannot be retrieved.
	warningStatPathFormat = "Warning: unable to stat %s: %v"

	// errorAbsolutePathFormat is used when the absolute path cannot be determined.
	errorAbsolutePathFormat = "getting absolute path for %s: %w"
	// errorNegativeDepthFormat is used when the depth limit is negative.
	errorNegativeDepthFormat = "max depth must be non-negative, got %d"
	// errorStatRootFormat is used when the root cannot be inspected.
	errorStatRootFormat = "inspecting %s: %w"
	// errorRootNotDirectoryFormat is used when the root is not a directory.
	errorRootNotDirectoryFormat = "%s is not a directory"
	// errorBuildTreeFormat is used when building the tree fails.
	errorBuildTreeFormat = "building tree for %s: %w"
	// errorReadDirectoryFormat is used when a directory cannot be read.
	errorReadDirectoryFormat = "reading directory %s: %w"

	rootRelativePath = "."
)

// GetTreeData builds the filtered, depth-limited tree below rootDirectoryPath.
// The returned root node represents the directory itself; its children are sorted by name.
func (treeBuilder *TreeBuilder) GetTreeData(rootDirectoryPath string) (*types.TreeOutputNode, error) {
	if treeBuilder.MaxDepth < 0 {
		return nil, fmt.Errorf(errorNegativeDepthFormat, treeBuilder.MaxDepth)
	}

	absoluteRootDirPath, absolutePathError := filepath.Abs(rootDirectoryPath)
	if absolutePathError != nil {
		return nil, fmt.Errorf(errorAbsolutePathFormat, rootDirectoryPath, absolutePathError)
	}

	fileSystem := treeBuilder.FileSystem
	if fileSystem == nil {
		fileSystem = os.DirFS(absoluteRootDirPath)
	}
	rootInfo, rootStatError := fs.Stat(fileSystem, rootRelativePath)
	if rootStatError != nil {
		return nil, fmt.Errorf(errorStatRootFormat, absoluteRootDirPath, rootStatError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirectoryFormat, absoluteRootDirPath)
	}

	rootNode := &types.TreeOutputNode{
		Path: absoluteRootDirPath,
		Name: filepath.Base(absoluteRootDirPath),
		Type: types.NodeTypeDirectory,
	}

	children, buildError := treeBuilder.buildTreeNodes(fileSystem, rootRelativePath, absoluteRootDirPath, 0)
	if buildError != nil {
		return nil, fmt.Errorf(errorBuildTreeFormat, rootDirectoryPath, buildError)
	}
	rootNode.Children = children
	return rootNode, nil
}

// buildTreeNodes lists one directory and recurses into the directories that fit under the depth limit.
func (treeBuilder *TreeBuilder) buildTreeNodes(fileSystem fs.FS, relativeDirectoryPath string, absoluteDirectoryPath string, depth int) ([]*types.TreeOutputNode, error) {
	directoryEntries, readDirectoryError := fs.ReadDir(fileSystem, relativeDirectoryPath)
	if readDirectoryError != nil {
		return nil, fmt.Errorf(errorReadDirectoryFormat, absoluteDirectoryPath, readDirectoryError)
	}
	slices.SortFunc(directoryEntries, func(left, right fs.DirEntry) int {
		return strings.Compare(left.Name(), right.Name())
	})

	nodes := make([]*types.TreeOutputNode, 0, len(directoryEntries))
	for _, directoryEntry := range directoryEntries {
		entryName := directoryEntry.Name()
		relativeChildPath := utils.JoinRelative(relativeDirectoryPath, entryName)
		isDirectory := directoryEntry.IsDir()
		var targetInfo fs.FileInfo
		if directoryEntry.Type()&fs.ModeSymlink != 0 {
			// fs.Stat follows the link; a dangling link stays a plain entry.
			if linkTargetInfo, statError := fs.Stat(fileSystem, relativeChildPath); statError == nil {
				targetInfo = linkTargetInfo
				isDirectory = linkTargetInfo.IsDir()
			}
		}
		if treeBuilder.ignored(relativeChildPath, isDirectory) {
			continue
		}

		node := &types.TreeOutputNode{
			Path: filepath.Join(absoluteDirectoryPath, entryName),
			Name: entryName,
		}

		if !isDirectory {
			node.Type = types.NodeTypeFile
			if treeBuilder.IncludeSizes {
				entryInfo := targetInfo
				var infoError error
				if entryInfo == nil {
					entryInfo, infoError = directoryEntry.Info()
				}
				if infoError != nil {
					treeBuilder.warn(fmt.Sprintf(warningStatPathFormat, node.Path, infoError))
				} else {
					node.SizeBytes = entryInfo.Size()
					node.Size = utils.FormatFileSize(entryInfo.Size())
				}
			}
			nodes = append(nodes, node)
			continue
		}

		node.Type = types.NodeTypeDirectory
		if depth >= treeBuilder.MaxDepth {
			node.Truncated = true
			nodes = append(nodes, node)
			continue
		}

		childNodes, buildError := treeBuilder.buildTreeNodes(fileSystem, relativeChildPath, node.Path, depth+1)
		if buildError != nil {
			if treeBuilder.Strict {
				return nil, buildError
			}
			treeBuilder.warn(fmt.Sprintf(warningSkipSubdirFormat, node.Path, buildError))
		}
		node.Children = childNodes
		nodes = append(nodes, node)
	}

	return nodes, nil
}
