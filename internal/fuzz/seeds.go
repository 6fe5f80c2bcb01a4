package fuzztests

import "testing"

// Wire-shaped payloads the decoder must survive. The well-formed ones
// mirror real extractor output; the rest are truncations and type
// confusions caught while developing the decoder.
var seedPayloads = []string{
	`{
		"stage": "/show/seq010/shot.usda",
		"prim_path": "/World/Asset",
		"attribute": "xformOp:translate",
		"time": null,
		"resolved_value": [5, 2, -3],
		"resolved_value_type": "GfVec3d",
		"opinions": [
			{
				"index": 0,
				"layer_identifier": "/show/seq010/shot.usda",
				"layer_display_name": "shot",
				"arc_type": "local",
				"value": [5, 2, -3],
				"has_time_samples": false,
				"is_blocked": false,
				"is_direct": true,
				"class_path": ""
			},
			{
				"index": 1,
				"layer_identifier": "/assets/avocado/avocado.usda",
				"layer_display_name": "avocado",
				"arc_type": "reference",
				"value": [0, 0, 0],
				"has_time_samples": false,
				"is_blocked": false,
				"is_direct": false,
				"class_path": ""
			}
		],
		"layer_muting": {},
		"prim_is_loaded": true,
		"error": null
	}`,
	`{"stage": "s.usda", "prim_path": "/P", "attribute": "a", "opinions": [], "error": {"code": "PRIM_NOT_FOUND", "message": "no prim at /P"}}`,
	`{"stage": "s.usda", "prim_path": "/P", "attribute": "a", "opinions": [{"index": 0, "arc_type": "local", "is_blocked": true, "value": null}]}`,
	`{"opinions": [{"index": 3, "arc_type": "local"}]}`,
	`{"opinions": [{"index": 0, "arc_type": "relocate"}]}`,
	`{"opinions": [{"index": 0, "arc_type": "local", "value": {"nested": [1, {"deep": true}]}}]}`,
	`{"stage": 12, "opinions": "not a list"}`,
	`{"stage": "s.usda"`,
	`null`,
	`[]`,
}

func addCorpusSeeds(f *testing.F) {
	f.Add([]byte{})
	for _, s := range seedPayloads {
		f.Add([]byte(s))
	}
}
