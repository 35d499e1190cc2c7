package feed

import (
	"path"
	"strings"
)

// FileConfig places a single feed document in storage.
type FileConfig struct {
	Bucket         string `yaml:"gcsBucket"`
	FilePathBase   string `yaml:"filePathBase"`
	FilenamePrefix string `yaml:"filenamePrefix"`
	Extension      string `yaml:"extension"`
}

func (s FileConfig) Key() string {
	ext := s.Extension
	if ext == "" {
		ext = "xml"
	}
	return strings.TrimPrefix(path.Join(s.FilePathBase, s.FilenamePrefix+"."+ext), "/")
}

type ImageConfig struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
	Link  string `yaml:"link"`
}

// ChannelConfig describes an RSS channel.
type ChannelConfig struct {
	Title       string       `yaml:"title"`
	Link        string       `yaml:"link"`
	Description string       `yaml:"description"`
	Language    string       `yaml:"language"`
	Copyright   string       `yaml:"copyright"`
	Image       *ImageConfig `yaml:"image"`
}

// SitemapFileConfig places a set of sitemap documents in storage.
type SitemapFileConfig struct {
	Bucket            string `yaml:"bucket_name"`
	DestinationPrefix string `yaml:"destination_prefix"`
	SrcFileName       struct {
		Homepage     string `yaml:"homepage"`
		CatePost     string `yaml:"cate_post"`
		SitemapIndex string `yaml:"sitemap_index"`
	} `yaml:"src_file_name"`
}

func (s SitemapFileConfig) key(name string) string {
	return s.DestinationPrefix + name
}

// categoryKey expands the {} placeholder of cate_post with the category slug.
func (s SitemapFileConfig) categoryKey(category string) string {
	name := s.SrcFileName.CatePost
	if strings.Contains(name, "{}") {
		name = strings.Replace(name, "{}", category, 1)
	} else {
		name = category + "_" + name
	}
	return s.key(name)
}
