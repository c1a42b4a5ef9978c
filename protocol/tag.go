package protocol

// TagType identifies a song metadata tag.
type TagType int

const (
	TagArtist TagType = iota
	TagArtistSort
	TagAlbum
	TagAlbumSort
	TagAlbumArtist
	TagAlbumArtistSort
	TagTitle
	TagTrack
	TagName
	TagGenre
	TagDate
	TagOriginalDate
	TagComposer
	TagPerformer
	TagConductor
	TagWork
	TagGrouping
	TagComment
	TagDisc
	TagLabel
	TagMusicBrainzArtistID
	TagMusicBrainzAlbumID
	TagMusicBrainzAlbumArtistID
	TagMusicBrainzTrackID
	TagMusicBrainzReleaseTrackID
	TagMusicBrainzWorkID

	numTagTypes
)

var tagNames = [numTagTypes]string{
	TagArtist:                    "Artist",
	TagArtistSort:                "ArtistSort",
	TagAlbum:                     "Album",
	TagAlbumSort:                 "AlbumSort",
	TagAlbumArtist:               "AlbumArtist",
	TagAlbumArtistSort:           "AlbumArtistSort",
	TagTitle:                     "Title",
	TagTrack:                     "Track",
	TagName:                      "Name",
	TagGenre:                     "Genre",
	TagDate:                      "Date",
	TagOriginalDate:              "OriginalDate",
	TagComposer:                  "Composer",
	TagPerformer:                 "Performer",
	TagConductor:                 "Conductor",
	TagWork:                      "Work",
	TagGrouping:                  "Grouping",
	TagComment:                   "Comment",
	TagDisc:                      "Disc",
	TagLabel:                     "Label",
	TagMusicBrainzArtistID:       "MUSICBRAINZ_ARTISTID",
	TagMusicBrainzAlbumID:        "MUSICBRAINZ_ALBUMID",
	TagMusicBrainzAlbumArtistID:  "MUSICBRAINZ_ALBUMARTISTID",
	TagMusicBrainzTrackID:        "MUSICBRAINZ_TRACKID",
	TagMusicBrainzReleaseTrackID: "MUSICBRAINZ_RELEASETRACKID",
	TagMusicBrainzWorkID:         "MUSICBRAINZ_WORKID",
}

// Lookup keys are the lowercased wire names.
var tagLookup = map[string]TagType{
	"artist":                     TagArtist,
	"artistsort":                 TagArtistSort,
	"album":                      TagAlbum,
	"albumsort":                  TagAlbumSort,
	"albumartist":                TagAlbumArtist,
	"albumartistsort":            TagAlbumArtistSort,
	"title":                      TagTitle,
	"track":                      TagTrack,
	"name":                       TagName,
	"genre":                      TagGenre,
	"date":                       TagDate,
	"originaldate":               TagOriginalDate,
	"composer":                   TagComposer,
	"performer":                  TagPerformer,
	"conductor":                  TagConductor,
	"work":                       TagWork,
	"grouping":                   TagGrouping,
	"comment":                    TagComment,
	"disc":                       TagDisc,
	"label":                      TagLabel,
	"musicbrainz_artistid":       TagMusicBrainzArtistID,
	"musicbrainz_albumid":        TagMusicBrainzAlbumID,
	"musicbrainz_albumartistid":  TagMusicBrainzAlbumArtistID,
	"musicbrainz_trackid":        TagMusicBrainzTrackID,
	"musicbrainz_releasetrackid": TagMusicBrainzReleaseTrackID,
	"musicbrainz_workid":         TagMusicBrainzWorkID,
}

func (t TagType) String() string {
	if t < 0 || t >= numTagTypes {
		return "unknown"
	}
	return tagNames[t]
}

// TagFromName maps a (lowercased) wire name to its tag type.
func TagFromName(name string) (TagType, bool) {
	t, ok := tagLookup[name]
	return t, ok
}

// Tag is one tag value attached to a song.
type Tag struct {
	Kind  TagType
	Value string
}

// TagFilter matches songs whose tag Kind has exactly the Value.
type TagFilter struct {
	Tag   TagType
	Value string
}

// TagSet is a set of tag types, used by the tagtypes command.
type TagSet uint32

// AllTags contains every tag type.
const AllTags TagSet = 1<<numTagTypes - 1

// With returns the set extended by t.
func (set TagSet) With(t TagType) TagSet {
	return set | 1<<uint(t)
}

// Has reports membership.
func (set TagSet) Has(t TagType) bool {
	return set&(1<<uint(t)) != 0
}

// Union returns the members present in either set.
func (set TagSet) Union(other TagSet) TagSet {
	return set | other
}

// Diff returns the members of set not present in other.
func (set TagSet) Diff(other TagSet) TagSet {
	return set &^ other
}

// TagTypes returns the members in declaration order.
func (set TagSet) TagTypes() []TagType {
	var tags []TagType
	for t := TagType(0); t < numTagTypes; t++ {
		if set.Has(t) {
			tags = append(tags, t)
		}
	}
	return tags
}
