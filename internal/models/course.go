package models

type ContentCategory string

const (
	CategorySyllabus   ContentCategory = "Syllabus"
	CategoryLectures   ContentCategory = "Lectures"
	CategoryExercises  ContentCategory = "Exercises"
	CategoryReferences ContentCategory = "References"
)

// ContentCategories lists the course subdirectories that are indexed, in load order.
var ContentCategories = []ContentCategory{
	CategorySyllabus,
	CategoryLectures,
	CategoryExercises,
	CategoryReferences,
}

const UnknownTerm = "unknown"

// Course describes one course directory. It is derived on every scan and never stored.
type Course struct {
	Code      string `json:"course_code"`
	Name      string `json:"course_name"`
	Term      string `json:"term"`
	Directory string `json:"directory"`
}

// Metadata returns the fields stamped on every document loaded from the course.
func (c Course) Metadata() Metadata {
	return Metadata{
		MetaCourseCode: StringValue(c.Code),
		MetaCourseName: StringValue(c.Name),
		MetaTerm:       StringValue(c.Term),
	}
}
