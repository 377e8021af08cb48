package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/vss2git/pkg/models"
)

// replayRevision applies one revision to the mapper and the working tree.
// It reports whether the working tree changed. Labels are collected for
// tagging once the changeset is committed.
func (e *Exporter) replayRevision(ctx context.Context, rev models.Revision, labels *[]models.Revision) (bool, error) {
	if rev.Item.IsProject {
		return e.replayProjectRevision(ctx, rev, labels)
	}

	switch rev.Action.(type) {
	case models.Edit, models.Branch:
		e.mapper.SetFileVersion(rev.Item, rev.Version)
		paths := e.mapper.FilePaths(rev.Item.PhysicalName, "")
		if len(paths) == 0 {
			e.logger.WithField("file", rev.Item.LogicalName).Debug("File is not mapped to any project")
		}
		return e.writeRevision(ctx, rev.Item.PhysicalName, rev.Version, paths)
	}
	return false, nil
}

func (e *Exporter) replayProjectRevision(ctx context.Context, rev models.Revision, labels *[]models.Revision) (bool, error) {
	project := rev.Item
	log := e.logger.WithFields(logrus.Fields{
		"project": project.LogicalName,
		"action":  rev.Action.String(),
	})

	named, ok := rev.Action.(models.NamedAction)
	if !ok {
		if _, isLabel := rev.Action.(models.Label); isLabel {
			*labels = append(*labels, rev)
		}
		return false, nil
	}

	target := named.Target()
	projectPath, mapped := e.mapper.ProjectPath(project.PhysicalName)
	targetPath := ""
	if mapped {
		targetPath = filepath.Join(projectPath, target.LogicalName)
	} else {
		log.Debug("Project is not mapped")
	}

	var (
		changed      bool
		isAdd        bool
		writeProject bool
		writeFile    bool
		err          error
	)

	switch a := rev.Action.(type) {
	case models.Create:
		// Items appear on Add.
	case models.Add, models.Share, models.Restore:
		e.mapper.AddItem(project, target)
		isAdd = true
	case models.Recover:
		e.mapper.RecoverItem(project, target)
		isAdd = true
	case models.Delete:
		changed, err = e.deleteItem(ctx, project, target, targetPath, log)
	case models.Destroy:
		changed, err = e.deleteItem(ctx, project, target, targetPath, log)
		if node, ok := e.mapper.Node(target.PhysicalName); ok {
			node.Destroyed = true
		}
	case models.Rename:
		changed, err = e.renameItem(ctx, target, a.OriginalName, projectPath, mapped, log)
	case models.MoveFrom:
		sourcePath, sourceMapped := e.mapper.ProjectPath(target.PhysicalName)
		node := e.mapper.MoveProjectFrom(project, target, a.OriginalProject)
		if targetPath != "" && !node.Destroyed {
			if sourceMapped && exists(sourcePath) {
				changed, err = e.moveProject(ctx, target.PhysicalName, sourcePath, targetPath)
			} else {
				log.WithField("source", a.OriginalProject).Info("Source of move is unreachable; writing project")
				writeProject = true
			}
		}
	case models.MoveTo:
		node := e.mapper.MoveProjectTo(project, target, a.NewProject)
		if node.Destroyed && targetPath != "" && exists(targetPath) {
			log.WithField("path", targetPath).Info("Removing project moved out of the mapped tree")
			if err = os.RemoveAll(targetPath); err == nil {
				changed = true
			}
		}
	case models.Pin:
		if a.Pinned {
			e.mapper.PinItem(project, target)
		} else {
			node := e.mapper.UnpinItem(project, target)
			writeFile = !node.Destroyed
		}
	case models.Branch:
		e.mapper.BranchFile(project, target, a.Source)
		writeFile = true
	case models.Archive:
		log.WithField("archive", a.ArchivePath).Info("Archive is not replayed")
	}
	if err != nil {
		return false, err
	}

	if targetPath == "" {
		return changed, nil
	}

	if isAdd {
		if e.collected.IsDestroyed(target.PhysicalName) && !e.db.ItemExists(target.PhysicalName) {
			log.WithField("item", target.LogicalName).Info("Skipping destroyed item")
			if node, ok := e.mapper.Node(target.PhysicalName); ok {
				node.Destroyed = true
			}
		} else if target.IsProject {
			if err := os.MkdirAll(targetPath, 0o755); err != nil {
				return false, fmt.Errorf("failed to create %s: %w", targetPath, err)
			}
			writeProject = true
		} else {
			writeFile = true
		}
	}

	if writeProject && e.mapper.IsProjectRooted(target.PhysicalName) {
		wrote, err := e.writeProject(ctx, target.PhysicalName)
		if err != nil {
			return false, err
		}
		changed = changed || wrote
	}

	if writeFile {
		version := e.mapper.FileVersion(target.PhysicalName)
		wrote, err := e.writeRevision(ctx, target.PhysicalName, version, []string{targetPath})
		if err != nil {
			return false, err
		}
		changed = changed || wrote
	}

	return changed, nil
}

// deleteItem detaches target and removes its working copy. A project with no
// files is removed from disk only, since the VCS does not track it.
func (e *Exporter) deleteItem(ctx context.Context, project, target models.ItemName, targetPath string, log *logrus.Entry) (bool, error) {
	node := e.mapper.DeleteItem(project, target)
	if targetPath == "" || node.Destroyed {
		return false, nil
	}

	if target.IsProject {
		if !isDir(targetPath) {
			return false, nil
		}
		if e.mapper.ContainsFiles(target.PhysicalName) {
			if err := e.vcs.Remove(ctx, targetPath, true); err != nil {
				return false, fmt.Errorf("failed to remove %s: %w", targetPath, err)
			}
			return true, nil
		}
		if err := os.RemoveAll(targetPath); err != nil {
			return false, fmt.Errorf("failed to remove %s: %w", targetPath, err)
		}
		return false, nil
	}

	if !isFile(targetPath) {
		return false, nil
	}
	if e.mapper.ProjectContainsLogicalName(project, target) {
		log.WithField("file", target.LogicalName).Warn("Project contains another file with this name; not deleting file")
		return false, nil
	}
	if err := os.Remove(targetPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to remove %s: %w", targetPath, err)
	}
	return true, nil
}

// renameItem updates the logical name and renames every working copy. A
// shared file is renamed in each containing project.
func (e *Exporter) renameItem(ctx context.Context, target models.ItemName, originalName, projectPath string, mapped bool, log *logrus.Entry) (bool, error) {
	node := e.mapper.RenameItem(target)
	if node.Destroyed {
		return false, nil
	}

	var dirs []string
	if target.IsProject {
		if mapped {
			dirs = []string{projectPath}
		}
	} else {
		for _, project := range node.Projects() {
			if dir, ok := e.mapper.ProjectPath(project); ok {
				dirs = append(dirs, dir)
			}
		}
	}

	changed := false
	for _, dir := range dirs {
		sourcePath := filepath.Join(dir, originalName)
		destPath := filepath.Join(dir, target.LogicalName)
		present := isFile(sourcePath)
		if target.IsProject {
			present = isDir(sourcePath)
		}
		if !present {
			log.WithField("path", sourcePath).Info("Skipping rename because source does not exist")
			continue
		}

		if target.IsProject && !e.mapper.ContainsFiles(target.PhysicalName) {
			if err := caseSensitiveRename(sourcePath, destPath, os.Rename); err != nil {
				return false, fmt.Errorf("failed to rename %s: %w", sourcePath, err)
			}
			continue
		}
		mover := func(src, dst string) error { return e.vcs.Move(ctx, src, dst) }
		if err := caseSensitiveRename(sourcePath, destPath, mover); err != nil {
			return false, fmt.Errorf("failed to rename %s: %w", sourcePath, err)
		}
		changed = true
	}
	return changed, nil
}

func (e *Exporter) moveProject(ctx context.Context, physical, sourcePath, targetPath string) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(targetPath), err)
	}
	if e.mapper.ContainsFiles(physical) {
		if err := e.vcs.Move(ctx, sourcePath, targetPath); err != nil {
			return false, fmt.Errorf("failed to move %s: %w", sourcePath, err)
		}
		return true, nil
	}
	if err := os.Rename(sourcePath, targetPath); err != nil {
		return false, fmt.Errorf("failed to move %s: %w", sourcePath, err)
	}
	return false, nil
}

// writeProject materializes every subproject directory and file under the
// project.
func (e *Exporter) writeProject(ctx context.Context, physical string) (bool, error) {
	for _, sub := range e.mapper.AllProjects(physical) {
		dir, ok := e.mapper.ProjectPath(sub.PhysicalName)
		if !ok {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	wrote := false
	for _, file := range e.mapper.AllFiles(physical) {
		paths := e.mapper.FilePaths(file.PhysicalName, physical)
		ok, err := e.writeRevision(ctx, file.PhysicalName, file.Version(), paths)
		if err != nil {
			return false, err
		}
		wrote = wrote || ok
	}
	return wrote, nil
}

// writeRevision writes one version of a file to each path and stages the
// paths, so later moves and removals in the same changeset see them. Content
// that cannot be reconstructed is logged and skipped.
func (e *Exporter) writeRevision(ctx context.Context, physical string, version int, paths []string) (bool, error) {
	if len(paths) == 0 {
		return false, nil
	}
	content, err := e.content.Revision(physical, version)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"file":    physical,
			"version": version,
		}).Warn("Skipping unavailable content")
		e.report.SkippedWrites += len(paths)
		return false, nil
	}

	for _, path := range paths {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, content.Data, 0o644); err != nil {
			return false, fmt.Errorf("failed to write %s: %w", path, err)
		}
		if !content.Timestamp.IsZero() {
			if err := os.Chtimes(path, content.Timestamp, content.Timestamp); err != nil {
				return false, fmt.Errorf("failed to set times on %s: %w", path, err)
			}
		}
	}
	if err := e.vcs.Add(ctx, paths...); err != nil {
		return false, fmt.Errorf("failed to add %s: %w", strings.Join(paths, ", "), err)
	}
	return true, nil
}

// caseSensitiveRename renames src to dst with rename. When the two differ
// only in case, differing parent directories are renamed first and the
// final element goes through a temporary name.
func caseSensitiveRename(src, dst string, rename func(src, dst string) error) error {
	if src == dst {
		return nil
	}
	if !strings.EqualFold(src, dst) {
		return rename(src, dst)
	}

	srcDir, srcName := filepath.Split(src)
	dstDir, dstName := filepath.Split(dst)
	srcDir = filepath.Clean(srcDir)
	dstDir = filepath.Clean(dstDir)
	if srcDir != dstDir {
		if err := caseSensitiveRename(srcDir, dstDir, rename); err != nil {
			return err
		}
		src = filepath.Join(dstDir, srcName)
	}
	if srcName != dstName {
		tmp := src + ".mvtmp"
		if err := rename(src, tmp); err != nil {
			return err
		}
		return rename(tmp, dst)
	}
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
