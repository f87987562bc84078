package opds

// LinkType is the media type of a feed link, a closed enumeration with a
// fixed wire string per value.
type LinkType int

const (
	TypeAcquisition LinkType = iota
	TypeImage
	TypeNavigation
	TypeOctetStream
	TypeZip
	TypeEpub
	TypeSearch
)

func (t LinkType) String() string {
	switch t {
	case TypeAcquisition:
		return "application/atom+xml;profile=opds-catalog;kind=acquisition"
	case TypeImage:
		return "image/jpeg"
	case TypeNavigation:
		return "application/atom+xml;profile=opds-catalog;kind=navigation"
	case TypeOctetStream:
		return "application/octet-stream"
	case TypeZip:
		return "application/zip"
	case TypeEpub:
		return "application/epub+zip"
	case TypeSearch:
		return "application/opensearchdescription+xml"
	}
	return ""
}

// LinkRel is the relation of a feed link.
type LinkRel int

const (
	RelSelf LinkRel = iota
	RelSubsection
	RelAcquisition
	RelStart
	RelNext
	RelPrevious
	RelThumbnail
	RelImage
	RelPageStream
	RelSearch
)

func (r LinkRel) String() string {
	switch r {
	case RelSelf:
		return "self"
	case RelSubsection:
		return "subsection"
	case RelAcquisition:
		return "http://opds-spec.org/acquisition"
	case RelStart:
		return "start"
	case RelNext:
		return "next"
	case RelPrevious:
		return "previous"
	case RelThumbnail:
		return "http://opds-spec.org/image/thumbnail"
	case RelImage:
		return "http://opds-spec.org/image"
	case RelPageStream:
		return "http://vaemendis.net/opds-pse/stream"
	case RelSearch:
		return "search"
	}
	return ""
}

type Link struct {
	Type LinkType
	Rel  LinkRel
	Href string
}
