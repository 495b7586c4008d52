package payload

// ImageFieldPaths lists every embedded-image location a family document can
// carry. List endpoints exclude these from responses (base64 payloads are
// large); detail endpoints include them.
var ImageFieldPaths = []string{
	"personalDetails.profileImage",
	"parentsInformation.fatherProfileImage",
	"parentsInformation.motherProfileImage",
	"marriedDetails.spouseProfileImage",
	"divorcedDetails.spouseProfileImage",
	"remarriedDetails.spouseProfileImage",
	"widowedDetails.spouseProfileImage",
}

// StripImages returns a copy of the document with all known image fields
// removed. Used by the in-memory stores to mirror the mongo projection.
func StripImages(doc Document) Document {
	out := doc.Clone()
	for _, path := range ImageFieldPaths {
		out.DeletePath(path)
	}
	return out
}
