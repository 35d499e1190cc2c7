package feed

import (
	"encoding/xml"
)

const (
	nsMedia   = "http://search.yahoo.com/mrss/"
	nsDC      = "http://purl.org/dc/elements/1.1/"
	nsContent = "http://purl.org/rss/1.0/modules/content/"
	nsDCTerms = "http://purl.org/dc/terms/"
)

type RSS struct {
	XMLName      xml.Name `xml:"rss"`
	Version      string   `xml:"version,attr"`
	XMLNSMedia   string   `xml:"xmlns:media,attr,omitempty"`
	XMLNSDC      string   `xml:"xmlns:dc,attr,omitempty"`
	XMLNSContent string   `xml:"xmlns:content,attr,omitempty"`
	XMLNSDCTerms string   `xml:"xmlns:dcterms,attr,omitempty"`
	Channel      *Channel `xml:"channel"`
}

type Channel struct {
	Title         string        `xml:"title"`
	Link          string        `xml:"link"`
	Description   string        `xml:"description"`
	Language      string        `xml:"language,omitempty"`
	Copyright     string        `xml:"copyright,omitempty"`
	PubDate       string        `xml:"pubDate,omitempty"`
	LastBuildDate string        `xml:"lastBuildDate,omitempty"`
	TTL           int           `xml:"ttl,omitempty"`
	Image         *ChannelImage `xml:"image,omitempty"`
	Items         []Item        `xml:"item"`
}

type ChannelImage struct {
	Title string `xml:"title"`
	URL   string `xml:"url"`
	Link  string `xml:"link"`
}

type Item struct {
	Title          CDATA          `xml:"title"`
	Link           string         `xml:"link"`
	Description    CDATA          `xml:"description,omitempty"`
	Categories     []string       `xml:"category"`
	Creators       []string       `xml:"dc:creator"`
	MediaContent   *MediaContent  `xml:"media:content,omitempty"`
	MediaCredit    *MediaCredit   `xml:"media:credit,omitempty"`
	MediaKeywords  *MediaKeywords `xml:"media:keywords,omitempty"`
	ContentEncoded CDATA          `xml:"content:encoded,omitempty"`
	GUID           *GUIDElement   `xml:"guid,omitempty"`
	PubDate        string         `xml:"pubDate,omitempty"`
}

type GUIDElement struct {
	IsPermaLink string `xml:"isPermaLink,attr,omitempty"`
	Value       string `xml:",chardata"`
}

type MediaContent struct {
	URL       string `xml:"url,attr"`
	Type      string `xml:"type,attr,omitempty"`
	Medium    string `xml:"medium,attr,omitempty"`
	IsDefault string `xml:"isDefault,attr,omitempty"`
}

type MediaCredit struct {
	Role  string `xml:"role,attr"`
	Value string `xml:",cdata"`
}

type MediaKeywords struct {
	Value string `xml:",chardata"`
}

func newChannel(cfg ChannelConfig) *Channel {
	ch := &Channel{
		Title:       cfg.Title,
		Link:        cfg.Link,
		Description: cfg.Description,
		Language:    cfg.Language,
		Copyright:   cfg.Copyright,
	}
	if cfg.Image != nil {
		ch.Image = &ChannelImage{
			Title: cfg.Image.Title,
			URL:   cfg.Image.URL,
			Link:  cfg.Image.Link,
		}
	}
	return ch
}
