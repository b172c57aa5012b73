package model

import "testing"

func TestPrimaryLabelPriority(t *testing.T) {
	cases := []struct {
		diseases []DiseaseLabel
		want     DiseaseLabel
	}{
		{[]DiseaseLabel{LabelNormal, LabelPneumonia, LabelCardiomegaly}, LabelPneumonia},
		{[]DiseaseLabel{LabelFracture, LabelNodule}, LabelNodule},
		{[]DiseaseLabel{LabelNormal, LabelUnspecified}, LabelNormal},
		{[]DiseaseLabel{LabelUnspecified}, LabelUnspecified},
		{nil, LabelUnspecified},
	}
	for _, tc := range cases {
		if got := PrimaryLabel(tc.diseases); got != tc.want {
			t.Errorf("PrimaryLabel(%v) = %s, want %s", tc.diseases, got, tc.want)
		}
	}
}
