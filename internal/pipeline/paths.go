package pipeline

import (
	"path/filepath"
	"strings"
)

// ArtifactPath returns where the subtitle for mediaPath in the given
// language tag is written. Without an output directory the artifact sits
// beside the media file. With one, the media file's directory relative to
// the source root is recreated under it.
func (p *Pipeline) ArtifactPath(mediaPath, tag string) string {
	dir := filepath.Dir(mediaPath)
	if p.outputDir != "" {
		dir = p.outputDir
		if p.sourceRoot != "" {
			if rel, err := filepath.Rel(p.sourceRoot, filepath.Dir(mediaPath)); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
				dir = filepath.Join(p.outputDir, rel)
			}
		}
	}
	base := strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath))
	return filepath.Join(dir, base+"."+artifactTag(tag)+".srt")
}

// TargetArtifact returns the path of the target-language artifact for mediaPath.
func (p *Pipeline) TargetArtifact(mediaPath string) string {
	return p.ArtifactPath(mediaPath, p.target)
}

func artifactTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.ReplaceAll(tag, "_", "-")
	tag = strings.ReplaceAll(tag, string(filepath.Separator), "-")
	if tag == "" {
		return "und"
	}
	return tag
}
